package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/onyxerr"
)

// MemoryAgentRepository is an in-process AgentRepository, backing unit
// tests the way the teacher's own test suites prefer in-process fakes over
// protocol-level mocks.
type MemoryAgentRepository struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*model.Agent
}

// NewMemoryAgentRepository returns an empty repository.
func NewMemoryAgentRepository() *MemoryAgentRepository {
	return &MemoryAgentRepository{agents: make(map[uuid.UUID]*model.Agent)}
}

func (r *MemoryAgentRepository) Get(_ context.Context, id uuid.UUID) (*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, onyxerr.NotFound("agent", id.String())
	}
	return a, nil
}

func (r *MemoryAgentRepository) Save(_ context.Context, agent *model.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
	return nil
}

// MemoryIntegrationRepository is an in-process IntegrationRepository.
type MemoryIntegrationRepository struct {
	mu           sync.RWMutex
	integrations map[uuid.UUID]*model.Integration
}

// NewMemoryIntegrationRepository returns an empty repository.
func NewMemoryIntegrationRepository() *MemoryIntegrationRepository {
	return &MemoryIntegrationRepository{integrations: make(map[uuid.UUID]*model.Integration)}
}

func (r *MemoryIntegrationRepository) Get(_ context.Context, id uuid.UUID) (*model.Integration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.integrations[id]
	if !ok {
		return nil, onyxerr.NotFound("integration", id.String())
	}
	return i, nil
}

func (r *MemoryIntegrationRepository) Save(_ context.Context, integration *model.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[integration.ID] = integration
	return nil
}

// MemoryConnectionRepository is an in-process ConnectionRepository.
type MemoryConnectionRepository struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*model.Connection
}

// NewMemoryConnectionRepository returns an empty repository.
func NewMemoryConnectionRepository() *MemoryConnectionRepository {
	return &MemoryConnectionRepository{connections: make(map[uuid.UUID]*model.Connection)}
}

func (r *MemoryConnectionRepository) Get(_ context.Context, id uuid.UUID) (*model.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[id]
	if !ok {
		return nil, onyxerr.NotFound("connection", id.String())
	}
	return c, nil
}

func (r *MemoryConnectionRepository) Save(_ context.Context, connection *model.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[connection.ID] = connection
	return nil
}

// MemoryIngestStateRepository is an in-process IngestStateRepository. Load
// returns a fresh zero-value state (not an error) for an integration that
// has never been synced, matching the original's "create on first access"
// semantics for per-integration bookkeeping rows.
type MemoryIngestStateRepository struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*model.IngestState
}

// NewMemoryIngestStateRepository returns an empty repository.
func NewMemoryIngestStateRepository() *MemoryIngestStateRepository {
	return &MemoryIngestStateRepository{states: make(map[uuid.UUID]*model.IngestState)}
}

func (r *MemoryIngestStateRepository) Load(_ context.Context, integrationID uuid.UUID) (*model.IngestState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[integrationID]
	if !ok {
		return model.NewIngestState(integrationID), nil
	}
	clone := *st
	clone.Bookmarks = cloneBookmarks(st.Bookmarks)
	return &clone, nil
}

func (r *MemoryIngestStateRepository) Save(_ context.Context, state *model.IngestState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *state
	clone.Bookmarks = cloneBookmarks(state.Bookmarks)
	r.states[state.IntegrationID] = &clone
	return nil
}

// MemoryTaskRepository is an in-process TaskRepository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*model.Task
}

// NewMemoryTaskRepository returns an empty repository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[uuid.UUID]*model.Task)}
}

func (r *MemoryTaskRepository) Save(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

func (r *MemoryTaskRepository) Get(_ context.Context, id uuid.UUID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, onyxerr.NotFound("task", id.String())
	}
	return t, nil
}

func cloneBookmarks(in map[string][]model.Interval) map[string][]model.Interval {
	out := make(map[string][]model.Interval, len(in))
	for k, v := range in {
		out[k] = append([]model.Interval(nil), v...)
	}
	return out
}
