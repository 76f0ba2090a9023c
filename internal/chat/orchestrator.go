// Package chat drives chat_with_ai: loading a channel, starting the agent
// chain, and streaming delta chunks back to the caller while committing
// the growing AI message.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/ai/agent"
	catalogmodel "onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/chat/store"
	"onyx.dev/onyx/internal/onyxerr"
	"onyx.dev/onyx/internal/servicebus"
)

// Catalog is the boundary to agent configuration, narrowed to exactly
// what the orchestrator needs.
type Catalog interface {
	GetAgentInfo(ctx context.Context, agentID uuid.UUID) (*catalogmodel.AgentInfo, error)
}

// Request starts or continues a chat turn.
type Request struct {
	ChannelID uuid.UUID
	// AnswerID, if set, selects regeneration: reload the existing AI
	// message instead of creating a new user/AI message pair.
	AnswerID *uuid.UUID
	Text     string
	Username string
	// HistoryLimit bounds how many prior messages are serialized into the
	// chain's chat_history.
	HistoryLimit int
}

// StreamFinished is published on the event bus once a chat turn commits,
// successfully or not.
type StreamFinished struct {
	ChannelID        uuid.UUID
	MessageID        uuid.UUID
	Status           model.MessageStatus
	TotalDuration    time.Duration
	TimeToFirstToken time.Duration
}

// DeltaChunk is one increment yielded to the caller: either the initial
// user message (UserMessage non-nil, everything else zero) or a delta of
// the AI message's growing content.
type DeltaChunk struct {
	UserMessage *model.Message
	Delta       string
	Message     *model.Message // accumulated snapshot after applying Delta
}

// Orchestrator runs chat_with_ai.
type Orchestrator struct {
	Factory  store.UnitOfWorkFactory
	Catalog  Catalog
	Chain    agent.Chain
	Bus      *servicebus.Bus
	Now      func() time.Time
}

// NewOrchestrator returns an Orchestrator with Now defaulting to
// time.Now.
func NewOrchestrator(factory store.UnitOfWorkFactory, catalog Catalog, chain agent.Chain, bus *servicebus.Bus) *Orchestrator {
	return &Orchestrator{Factory: factory, Catalog: catalog, Chain: chain, Bus: bus, Now: time.Now}
}

// Run starts the chat turn and returns a channel of DeltaChunk. The
// channel closes when generation completes, fails, or ctx is canceled —
// modelling the async-generator's generator-exit/exception/success
// branches as a goroutine whose sender checks ctx before every emit.
func (o *Orchestrator) Run(ctx context.Context, req Request) (<-chan DeltaChunk, error) {
	uow := o.Factory.Begin()

	channel, err := uow.Channels().Get(ctx, req.ChannelID)
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if channel.AgentID == nil {
		_ = uow.Rollback(ctx)
		return nil, onyxerr.New(onyxerr.KindInvalidArgument, "channel has no agent assigned")
	}

	info, err := o.Catalog.GetAgentInfo(ctx, *channel.AgentID)
	if err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if info == nil {
		_ = uow.Rollback(ctx)
		return nil, onyxerr.NotFound("agent_info", channel.AgentID.String())
	}

	var userMsg, aiMsg *model.Message
	if req.AnswerID != nil {
		aiMsg, err = uow.Messages().Get(ctx, *req.AnswerID)
		if err != nil {
			_ = uow.Rollback(ctx)
			return nil, err
		}
		if aiMsg.ParentID == nil {
			_ = uow.Rollback(ctx)
			return nil, onyxerr.New(onyxerr.KindInvalidArgument, "answer message has no parent")
		}
		userMsg, err = uow.Messages().Get(ctx, *aiMsg.ParentID)
		if err != nil {
			_ = uow.Rollback(ctx)
			return nil, err
		}
		aiMsg.Content = ""
		aiMsg.Sources = nil
		aiMsg.Status = model.MessageStatusStreaming
	} else {
		var parentID *uuid.UUID
		if last := channel.LastMessage(); last != nil {
			id := last.ID
			parentID = &id
		}
		userMsg = &model.Message{ID: uuid.New(), ChannelID: channel.ID, ParentID: parentID, Content: req.Text, CreatedAt: o.Now()}
		aiMsg = &model.Message{ID: uuid.New(), ChannelID: channel.ID, ParentID: &userMsg.ID, IsAIMessage: true, Status: model.MessageStatusStreaming, CreatedAt: o.Now()}
		channel.Messages = append(channel.Messages, userMsg, aiMsg)
	}

	if err := uow.Messages().Save(ctx, userMsg); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}
	if err := uow.Channels().Save(ctx, channel); err != nil {
		_ = uow.Rollback(ctx)
		return nil, err
	}

	history := buildHistory(channel, req.HistoryLimit)

	out := make(chan DeltaChunk)
	go o.stream(ctx, uow, channel, userMsg, aiMsg, history, req, *info, out)
	return out, nil
}

func buildHistory(channel *model.Channel, limit int) []agent.HistoryMessage {
	if limit <= 0 {
		limit = 20
	}
	msgs := channel.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	history := make([]agent.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		history = append(history, agent.HistoryMessage{IsAIMessage: m.IsAIMessage, Content: m.Content})
	}
	return history
}

func (o *Orchestrator) stream(ctx context.Context, uow store.UnitOfWork, channel *model.Channel, userMsg, aiMsg *model.Message, history []agent.HistoryMessage, req Request, info catalogmodel.AgentInfo, out chan<- DeltaChunk) {
	defer close(out)

	start := o.Now()
	status := model.MessageStatusSuccess
	var ttft time.Duration
	var traced bool

	select {
	case out <- DeltaChunk{UserMessage: userMsg}:
	case <-ctx.Done():
		_ = uow.Rollback(ctx)
		return
	}

	chunks, err := o.Chain.Run(ctx, agent.Input{
		Message:          req.Text,
		Username:         req.Username,
		ChatHistory:      history,
		AgentInfo:        info,
		CiteSources:      true,
		TracingSessionID: channel.ID.String(),
	})
	if err != nil {
		status = model.MessageStatusFailure
	} else {
		for chunk := range chunks {
			select {
			case <-ctx.Done():
				status = model.MessageStatusFailure
				goto finalize
			default:
			}

			switch chunk.Kind {
			case agent.ChunkTrace:
				traced = true
				aiMsg.TraceID = chunk.TraceID
				aiMsg.Metadata.TraceURL = chunk.TraceURL
				aiMsg.Metadata.TotalDuration = time.Duration(chunk.TotalDuration)
				aiMsg.Metadata.TimeToFirstToken = time.Duration(chunk.TimeToFirstToken)
			case agent.ChunkStep:
				aiMsg.Metadata.Steps = append(aiMsg.Metadata.Steps, string(chunk.Step))
			case agent.ChunkText:
				if chunk.Text == "" && len(chunk.Sources) == 0 {
					continue
				}
				aiMsg.Content += chunk.Text
				if ttft == 0 && chunk.Text != "" {
					ttft = o.Now().Sub(start)
				}
				for _, src := range chunk.Sources {
					if !aiMsg.HasSource(src.Number) {
						aiMsg.Sources = append(aiMsg.Sources, src)
					}
				}
				select {
				case out <- DeltaChunk{Delta: chunk.Text, Message: aiMsg}:
				case <-ctx.Done():
					status = model.MessageStatusFailure
					goto finalize
				}
			}
		}
	}

finalize:
	aiMsg.Status = status
	if !traced {
		aiMsg.Metadata.TotalDuration = o.Now().Sub(start)
		aiMsg.Metadata.TimeToFirstToken = ttft
	}

	if status == model.MessageStatusFailure {
		select {
		case out <- DeltaChunk{Message: aiMsg}:
		case <-ctx.Done():
		}
	}

	if err := uow.Messages().Save(ctx, aiMsg); err != nil {
		_ = uow.Rollback(ctx)
		return
	}
	if err := uow.Commit(ctx); err != nil {
		return
	}

	if o.Bus != nil {
		collector := servicebus.NewEventCollector()
		collector.Publish(StreamFinished{
			ChannelID:        channel.ID,
			MessageID:        aiMsg.ID,
			Status:           status,
			TotalDuration:    aiMsg.Metadata.TotalDuration,
			TimeToFirstToken: ttft,
		})
		o.Bus.Commit(ctx, collector)
	}
}
