package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/onyxerr"
)

// MemoryUnitOfWork is an in-process UnitOfWork over a shared, mutex-guarded
// backing map. Writes are staged into a per-UnitOfWork overlay and only
// applied to the shared map on Commit, so a Rollback (or an unhandled
// panic recovered by the caller) leaves the shared state untouched —
// mirroring a real transaction's isolation without requiring a database in
// unit tests.
type MemoryUnitOfWork struct {
	shared *memoryBackend

	channelOverlay  map[uuid.UUID]*model.Channel
	messageOverlay  map[uuid.UUID]*model.Message
	feedbackOverlay []*model.Feedback
	done            bool
}

type memoryBackend struct {
	mu        sync.Mutex
	channels  map[uuid.UUID]*model.Channel
	messages  map[uuid.UUID]*model.Message
	feedbacks map[string]*model.Feedback // key: messageID+traceID
}

// NewMemoryBackend returns a backend shared across every UnitOfWork
// produced by MemoryUnitOfWorkFactory.
func NewMemoryBackend() *memoryBackend {
	return &memoryBackend{
		channels:  make(map[uuid.UUID]*model.Channel),
		messages:  make(map[uuid.UUID]*model.Message),
		feedbacks: make(map[string]*model.Feedback),
	}
}

// MemoryUnitOfWorkFactory begins new MemoryUnitOfWork instances against a
// shared backend, the way a real Begin() opens a transaction against one
// shared database.
type MemoryUnitOfWorkFactory struct {
	backend *memoryBackend
}

// NewMemoryUnitOfWorkFactory returns a factory with a fresh backend.
func NewMemoryUnitOfWorkFactory() *MemoryUnitOfWorkFactory {
	return &MemoryUnitOfWorkFactory{backend: NewMemoryBackend()}
}

// Begin starts a new UnitOfWork.
func (f *MemoryUnitOfWorkFactory) Begin() UnitOfWork {
	return &MemoryUnitOfWork{
		shared:         f.backend,
		channelOverlay: make(map[uuid.UUID]*model.Channel),
		messageOverlay: make(map[uuid.UUID]*model.Message),
	}
}

func (uow *MemoryUnitOfWork) Channels() ChannelRepository { return channelRepo{uow} }
func (uow *MemoryUnitOfWork) Messages() MessageRepository { return messageRepo{uow} }
func (uow *MemoryUnitOfWork) Feedback() FeedbackRepository { return feedbackRepo{uow} }

// Commit applies every staged write to the shared backend atomically with
// respect to other Commit calls.
func (uow *MemoryUnitOfWork) Commit(context.Context) error {
	if uow.done {
		return nil
	}
	uow.shared.mu.Lock()
	defer uow.shared.mu.Unlock()
	for id, ch := range uow.channelOverlay {
		uow.shared.channels[id] = ch
	}
	for id, msg := range uow.messageOverlay {
		uow.shared.messages[id] = msg
	}
	for _, fb := range uow.feedbackOverlay {
		key := fb.MessageID.String() + "/" + fb.TraceID
		uow.shared.feedbacks[key] = fb
	}
	uow.done = true
	return nil
}

// Rollback discards every staged write.
func (uow *MemoryUnitOfWork) Rollback(context.Context) error {
	uow.channelOverlay = make(map[uuid.UUID]*model.Channel)
	uow.messageOverlay = make(map[uuid.UUID]*model.Message)
	uow.feedbackOverlay = nil
	uow.done = true
	return nil
}

type channelRepo struct{ uow *MemoryUnitOfWork }

func (r channelRepo) Get(_ context.Context, id uuid.UUID) (*model.Channel, error) {
	if ch, ok := r.uow.channelOverlay[id]; ok {
		return ch, nil
	}
	r.uow.shared.mu.Lock()
	defer r.uow.shared.mu.Unlock()
	ch, ok := r.uow.shared.channels[id]
	if !ok {
		return nil, onyxerr.NotFound("channel", id.String())
	}
	return ch, nil
}

func (r channelRepo) Save(_ context.Context, channel *model.Channel) error {
	r.uow.channelOverlay[channel.ID] = channel
	return nil
}

type messageRepo struct{ uow *MemoryUnitOfWork }

func (r messageRepo) Get(_ context.Context, id uuid.UUID) (*model.Message, error) {
	if msg, ok := r.uow.messageOverlay[id]; ok {
		return msg, nil
	}
	r.uow.shared.mu.Lock()
	defer r.uow.shared.mu.Unlock()
	msg, ok := r.uow.shared.messages[id]
	if !ok {
		return nil, onyxerr.NotFound("message", id.String())
	}
	return msg, nil
}

func (r messageRepo) Save(_ context.Context, message *model.Message) error {
	r.uow.messageOverlay[message.ID] = message
	return nil
}

type feedbackRepo struct{ uow *MemoryUnitOfWork }

func (r feedbackRepo) Upsert(_ context.Context, feedback *model.Feedback) error {
	r.uow.feedbackOverlay = append(r.uow.feedbackOverlay, feedback)
	return nil
}
