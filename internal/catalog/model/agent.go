// Package model defines the catalog's persisted entity types: agents and
// their versions, integrations, connections, namespaces, ingest state, and
// the task-queue bookkeeping record.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Agent is the identity row for a chattable persona. It owns zero or one
// published version and zero or one dev version, both pointing into the
// same AgentVersion table — the two foreign keys must stay nullable and
// neither version may own the other side of the relationship.
type Agent struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	IsDeleted        bool
	IsFeatured       bool
	Weight           int
	PublishedVersion *AgentVersion
	DevVersion       *AgentVersion
}

// Feature marks the agent featured at the given board position.
func (a *Agent) Feature(position int) {
	a.IsFeatured = true
	a.Weight = position
}

// Unfeature clears the agent's featured status and resets its weight.
func (a *Agent) Unfeature() {
	a.IsFeatured = false
	a.Weight = 0
}

// Info returns the AgentInfo snapshot for either the published or dev
// version, or nil if that version does not exist. A deleted agent's
// versions are never surfaced for search by callers honoring IsDeleted,
// but Info itself performs no such filtering — that invariant belongs to
// the search-indexing event handlers, not to this accessor.
func (a *Agent) Info(published bool) *AgentInfo {
	version := a.DevVersion
	if published {
		version = a.PublishedVersion
	}
	if version == nil {
		return nil
	}
	info := version.Info()
	return &info
}

// HasUnpublishedDevVersion reports whether the agent has a dev version
// that has never itself been published.
func (a *Agent) HasUnpublishedDevVersion() bool {
	return a.DevVersion != nil && !a.DevVersion.IsPublished
}

// AgentVersion is one configuration snapshot of an Agent.
type AgentVersion struct {
	ID              uuid.UUID
	AgentID         uuid.UUID
	Name            string
	Instructions    string
	Description     string
	Avatar          string
	Greeting        string
	Subdomain       string
	Knowledge       string
	Starters        []string
	IsPublished     bool
	AgentMetadata   map[string]any
	Integrations    []*Integration
	Connections     []*Connection
	Prompts         []*TrainingPrompt
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DataSources returns the version's integrations and connections projected
// to the shared DataSource shape consumed by the AI agent chain.
func (v *AgentVersion) DataSources() []DataSource {
	sources := make([]DataSource, 0, len(v.Integrations)+len(v.Connections))
	for _, integ := range v.Integrations {
		sources = append(sources, DataSource{
			OrganizationID: integ.OrganizationID,
			ID:             integ.ID,
			Slug:           integ.Slug,
			Name:           integ.Name,
			Type:           DataSourceTypeIntegration,
			Metadata:       integ.IntegrationMetadata,
		})
	}
	for _, conn := range v.Connections {
		sources = append(sources, DataSource{
			OrganizationID: conn.OrganizationID,
			ID:             conn.ID,
			Slug:           conn.Slug,
			Name:           conn.Name,
			Type:           DataSourceTypeWarehouse,
			Schema:         conn.Tables,
			Metadata:       conn.ConnectionMetadata,
		})
	}
	return sources
}

// Clone returns a new AgentVersion with the same field values, a fresh ID,
// and cloned prompts — publication status is not copied, matching the
// behavior of cloning a published version into a new draft.
func (v *AgentVersion) Clone() *AgentVersion {
	clone := &AgentVersion{
		ID:            uuid.New(),
		AgentID:       v.AgentID,
		Name:          v.Name,
		Instructions:  v.Instructions,
		Description:   v.Description,
		Avatar:        v.Avatar,
		Greeting:      v.Greeting,
		Subdomain:     v.Subdomain,
		Knowledge:     v.Knowledge,
		Starters:      append([]string(nil), v.Starters...),
		IsPublished:   false,
		AgentMetadata: v.AgentMetadata,
		Integrations:  v.Integrations,
		Connections:   v.Connections,
	}
	clone.Prompts = make([]*TrainingPrompt, len(v.Prompts))
	for i, p := range v.Prompts {
		clone.Prompts[i] = p.Clone()
	}
	return clone
}

// IsChanged reports whether this version differs from what is currently
// published for its agent: true if the agent has no published version yet,
// false if this version *is* the published one, and otherwise true if the
// version (or any of its prompts) was modified after creation.
func (v *AgentVersion) IsChanged(agent *Agent) bool {
	if agent.PublishedVersion == nil {
		return true
	}
	if agent.PublishedVersion.ID == v.ID {
		return false
	}
	if v.UpdatedAt.After(v.CreatedAt) {
		return true
	}
	for _, p := range v.Prompts {
		if p.IsChanged() {
			return true
		}
	}
	return false
}

// Info projects the version onto the shared AgentInfo type consumed by the
// AI agent chain.
func (v *AgentVersion) Info() AgentInfo {
	prompts := make([]TrainingPrompt, len(v.Prompts))
	for i, p := range v.Prompts {
		prompts[i] = *p
	}
	return AgentInfo{
		Name:            v.Name,
		Description:     v.Description,
		Instructions:    v.Instructions,
		Knowledge:       v.Knowledge,
		DataSources:     v.DataSources(),
		TrainingPrompts: prompts,
	}
}
