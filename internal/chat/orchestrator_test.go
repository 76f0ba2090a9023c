package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/ai/agent"
	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/chat"
	"onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/chat/store"
	"onyx.dev/onyx/internal/servicebus"
)

type fakeCatalog struct{ info catalogmodel.AgentInfo }

func (f fakeCatalog) GetAgentInfo(context.Context, uuid.UUID) (*catalogmodel.AgentInfo, error) {
	return &f.info, nil
}

type fakeChain struct{ chunks []agent.Chunk }

func (f fakeChain) Run(context.Context, agent.Input) (<-chan agent.Chunk, error) {
	out := make(chan agent.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func seedChannel(t *testing.T, factory *store.MemoryUnitOfWorkFactory) (uuid.UUID, uuid.UUID) {
	t.Helper()
	uow := factory.Begin()
	agentID := uuid.New()
	channel := &model.Channel{ID: uuid.New(), AgentID: &agentID}
	require.NoError(t, uow.Channels().Save(context.Background(), channel))
	require.NoError(t, uow.Commit(context.Background()))
	return channel.ID, agentID
}

func TestOrchestratorStreamsUserMessageThenDeltasThenCommits(t *testing.T) {
	factory := store.NewMemoryUnitOfWorkFactory()
	channelID, _ := seedChannel(t, factory)

	chain := fakeChain{chunks: []agent.Chunk{
		{Kind: agent.ChunkStep, Step: catalogmodel.FetchData},
		{Kind: agent.ChunkText, Text: "hello "},
		{Kind: agent.ChunkText, Text: "world :s[1]", Sources: []model.MessageSource{{Number: 1, Label: "doc"}}},
	}}

	orch := chat.NewOrchestrator(factory, fakeCatalog{}, chain, servicebus.NewBus(servicebus.NewDispatcher(2)))
	orch.Now = func() time.Time { return time.Unix(1000, 0) }

	out, err := orch.Run(context.Background(), chat.Request{ChannelID: channelID, Text: "hi"})
	require.NoError(t, err)

	var deltas []chat.DeltaChunk
	for d := range out {
		deltas = append(deltas, d)
	}
	require.NotEmpty(t, deltas)
	require.NotNil(t, deltas[0].UserMessage)
	require.Equal(t, "hi", deltas[0].UserMessage.Content)

	var finalMessage *model.Message
	for _, d := range deltas[1:] {
		finalMessage = d.Message
	}
	require.NotNil(t, finalMessage)
	require.Equal(t, "hello world :s[1]", finalMessage.Content)
	require.Equal(t, model.MessageStatusSuccess, finalMessage.Status)
	require.Len(t, finalMessage.Sources, 1)
	require.Contains(t, finalMessage.Metadata.Steps, string(catalogmodel.FetchData))
}

type erroringChain struct{}

func (erroringChain) Run(context.Context, agent.Input) (<-chan agent.Chunk, error) {
	return nil, errors.New("chain unavailable")
}

func TestOrchestratorEmitsFinalFailureDeltaWhenChainErrors(t *testing.T) {
	factory := store.NewMemoryUnitOfWorkFactory()
	channelID, _ := seedChannel(t, factory)

	orch := chat.NewOrchestrator(factory, fakeCatalog{}, erroringChain{}, servicebus.NewBus(servicebus.NewDispatcher(2)))
	orch.Now = func() time.Time { return time.Unix(1000, 0) }

	out, err := orch.Run(context.Background(), chat.Request{ChannelID: channelID, Text: "hi"})
	require.NoError(t, err)

	var deltas []chat.DeltaChunk
	for d := range out {
		deltas = append(deltas, d)
	}
	require.Len(t, deltas, 2, "user message delta plus one closing failure delta")
	last := deltas[len(deltas)-1]
	require.NotNil(t, last.Message)
	require.Empty(t, last.Delta)
	require.Equal(t, model.MessageStatusFailure, last.Message.Status)
}

func TestOrchestratorFailsWhenChannelHasNoAgent(t *testing.T) {
	factory := store.NewMemoryUnitOfWorkFactory()
	uow := factory.Begin()
	channel := &model.Channel{ID: uuid.New()}
	require.NoError(t, uow.Channels().Save(context.Background(), channel))
	require.NoError(t, uow.Commit(context.Background()))

	orch := chat.NewOrchestrator(factory, fakeCatalog{}, fakeChain{}, servicebus.NewBus(servicebus.NewDispatcher(2)))
	_, err := orch.Run(context.Background(), chat.Request{ChannelID: channel.ID})
	require.Error(t, err)
}
