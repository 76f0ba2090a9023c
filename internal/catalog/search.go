package catalog

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/servicebus"
)

// AgentDocument is the denormalized projection of a published AgentVersion
// that SearchClient indexes, grounded on the original's AgentDocument.
type AgentDocument struct {
	AgentID              uuid.UUID
	Name                 string
	Description          string
	ConversationStarters []string
	Avatar               string
	Subdomain            string
}

// SearchClient is the catalog's search-index boundary: index/delete calls
// live only in the AgentPublished/AgentDeleted handlers below, never in the
// publish/delete request path itself, so a slow or unavailable search
// backend never blocks a publish.
type SearchClient interface {
	IndexAgent(ctx context.Context, doc AgentDocument) error
	DeleteAgent(ctx context.Context, agentID uuid.UUID) error
}

// AgentPublished is emitted once Publish promotes a dev version to live,
// carrying the document to index without a second fetch.
type AgentPublished struct {
	Document AgentDocument
}

// AgentDeleted is emitted once Delete marks an agent deleted.
type AgentDeleted struct {
	AgentID uuid.UUID
}

// RegisterSearchIndexing subscribes the handlers that keep client's index
// in sync with the catalog. AgentPublished only indexes while the agent is
// still live, enforcing is_deleted ⇒ not indexed (model.Agent.Info's doc
// comment) at the event boundary rather than inside Info itself.
func RegisterSearchIndexing(bus *servicebus.Bus, agents Lookup, client SearchClient) {
	servicebus.Subscribe(bus, func(ctx context.Context, e AgentPublished, _ *servicebus.Bus) error {
		agent, err := agents.Get(ctx, e.Document.AgentID)
		if err != nil {
			return err
		}
		if agent == nil || agent.IsDeleted {
			return nil
		}
		return client.IndexAgent(ctx, e.Document)
	})
	servicebus.Subscribe(bus, func(ctx context.Context, e AgentDeleted, _ *servicebus.Bus) error {
		return client.DeleteAgent(ctx, e.AgentID)
	})
}

// Lookup is the narrow repository slice RegisterSearchIndexing needs to
// re-check an agent's liveness at delivery time, since the bus may run a
// handler after a later, conflicting write.
type Lookup interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Agent, error)
}

// FakeSearchClient is an in-memory SearchClient, grounded on the original's
// FakeSearchClient test double.
type FakeSearchClient struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]AgentDocument
}

// NewFakeSearchClient returns an empty FakeSearchClient.
func NewFakeSearchClient() *FakeSearchClient {
	return &FakeSearchClient{indexed: make(map[uuid.UUID]AgentDocument)}
}

func (f *FakeSearchClient) IndexAgent(_ context.Context, doc AgentDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[doc.AgentID] = doc
	return nil
}

func (f *FakeSearchClient) DeleteAgent(_ context.Context, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, agentID)
	return nil
}

// Indexed reports whether agentID is currently indexed, and its document.
func (f *FakeSearchClient) Indexed(agentID uuid.UUID) (AgentDocument, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.indexed[agentID]
	return doc, ok
}
