package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/catalog"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/catalog/store"
	"onyx.dev/onyx/internal/servicebus"
)

func newTestAgent(t *testing.T, agents *store.MemoryAgentRepository) *model.Agent {
	t.Helper()
	agent := &model.Agent{
		ID:         uuid.New(),
		DevVersion: &model.AgentVersion{ID: uuid.New(), Name: "v1", Description: "desc", Starters: []string{"hi"}},
	}
	require.NoError(t, agents.Save(context.Background(), agent))
	return agent
}

func TestPublishIndexesAgentThroughRealBus(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	agents := store.NewMemoryAgentRepository()
	client := catalog.NewFakeSearchClient()
	catalog.RegisterSearchIndexing(bus, agents, client)

	svc := catalog.NewAgentInfoService(agents, bus)
	agent := newTestAgent(t, agents)

	require.NoError(t, svc.Publish(context.Background(), agent.ID))
	d.Teardown(context.Background(), time.Second)

	doc, ok := client.Indexed(agent.ID)
	require.True(t, ok)
	require.Equal(t, "v1", doc.Name)

	stored, err := agents.Get(context.Background(), agent.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PublishedVersion)
	require.True(t, stored.PublishedVersion.IsPublished)
	require.NotSame(t, stored.PublishedVersion, stored.DevVersion, "publish must open a fresh dev version")
}

func TestDeleteDeindexesAgentThroughRealBus(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	agents := store.NewMemoryAgentRepository()
	client := catalog.NewFakeSearchClient()
	catalog.RegisterSearchIndexing(bus, agents, client)

	svc := catalog.NewAgentInfoService(agents, bus)
	agent := newTestAgent(t, agents)

	require.NoError(t, svc.Publish(context.Background(), agent.ID))
	d.Teardown(context.Background(), time.Second)
	_, ok := client.Indexed(agent.ID)
	require.True(t, ok)

	require.NoError(t, svc.Delete(context.Background(), agent.ID))
	d.Teardown(context.Background(), time.Second)

	_, ok = client.Indexed(agent.ID)
	require.False(t, ok, "deleted agent must be removed from the search index")
}

func TestPublishAfterDeleteNeverIndexes(t *testing.T) {
	d := servicebus.NewDispatcher(2)
	bus := servicebus.NewBus(d)
	agents := store.NewMemoryAgentRepository()
	client := catalog.NewFakeSearchClient()
	catalog.RegisterSearchIndexing(bus, agents, client)

	svc := catalog.NewAgentInfoService(agents, bus)
	agent := newTestAgent(t, agents)

	require.NoError(t, svc.Delete(context.Background(), agent.ID))
	require.NoError(t, svc.Publish(context.Background(), agent.ID))
	d.Teardown(context.Background(), time.Second)

	_, ok := client.Indexed(agent.ID)
	require.False(t, ok, "is_deleted agents must never be indexed, even on a late publish")
}
