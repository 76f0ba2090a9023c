package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the lifecycle state of an Integration or Connection's most
// recent ingest/sync attempt.
type SyncStatus string

const (
	SyncStatusInitial SyncStatus = "initial"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// Integration is an API-style external data source (mail, chat, docs)
// bound to a slug identifying which Source/Stream implementation ingests
// it.
type Integration struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	NamespaceID       uuid.UUID
	Slug              string
	Name              string
	EncryptedConfig   string
	SyncStatus        SyncStatus
	SyncError         string
	LastSyncedAt      *time.Time
	IntegrationMetadata map[string]any
}

// Connection is a warehouse-style external data source exposing tables and
// columns rather than a stream of records.
type Connection struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	NamespaceID       uuid.UUID
	Slug              string
	Name              string
	EncryptedConfig   string
	Tables            any
	SyncStatus        SyncStatus
	SyncError         string
	LastSyncedAt      *time.Time
	ConnectionMetadata map[string]any
}

// Namespace is a tenancy scope used to isolate vector-store data: shared
// (owner == organization) or private (owner == user). Unique per
// (Name, OrganizationID).
type Namespace struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	OwnerID        uuid.UUID
	Name           string
}

// IsShared reports whether the namespace's owner is its organization
// rather than an individual user.
func (n *Namespace) IsShared() bool {
	return n.OwnerID == n.OrganizationID
}
