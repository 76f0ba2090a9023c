// Package store defines the catalog's relational-store repository
// interfaces and the row-locking contract that guards IngestState and
// Connection sync, plus an in-memory implementation of both for tests.
package store

import (
	"context"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/catalog/model"
)

// AgentRepository is the relational-store boundary for Agent/AgentVersion
// persistence. Any ACID SQL store satisfying this interface suffices; the
// uniqueness constraints named in the data model (one published version per
// agent) must be enforced at the schema level by a production
// implementation.
type AgentRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	Save(ctx context.Context, agent *model.Agent) error
}

// IntegrationRepository is the relational-store boundary for Integration
// persistence.
type IntegrationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Integration, error)
	Save(ctx context.Context, integration *model.Integration) error
}

// ConnectionRepository is the relational-store boundary for Connection
// persistence.
type ConnectionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Connection, error)
	Save(ctx context.Context, connection *model.Connection) error
}

// IngestStateRepository is the relational-store boundary for IngestState
// persistence. Load/Save must only be called while the caller holds the
// row lock for integrationID (see RowLocker).
type IngestStateRepository interface {
	Load(ctx context.Context, integrationID uuid.UUID) (*model.IngestState, error)
	Save(ctx context.Context, state *model.IngestState) error
}

// TaskRepository is the relational-store boundary for Task bookkeeping
// rows created by the task-queue escape hatch (§4.3 supplement).
type TaskRepository interface {
	Save(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
}
