// Package store defines the chat domain's relational-store repository
// interfaces and a UnitOfWork abstraction: commits only happen at an
// explicit Commit call, and any handler that touches the UnitOfWork rolls
// back on error.
package store

import (
	"context"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/chat/model"
)

// ChannelRepository is the relational-store boundary for Channel/Message
// persistence.
type ChannelRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Channel, error)
	Save(ctx context.Context, channel *model.Channel) error
}

// MessageRepository is the relational-store boundary for individual
// Message lookups that do not require loading the whole channel.
type MessageRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Message, error)
	Save(ctx context.Context, message *model.Message) error
}

// FeedbackRepository is the relational-store boundary for Feedback rows,
// upserted keyed by (MessageID, TraceID).
type FeedbackRepository interface {
	Upsert(ctx context.Context, feedback *model.Feedback) error
}

// UnitOfWork scopes a set of repository operations to one commit/rollback
// boundary. Handlers acquire one via Begin, perform repository writes, and
// either Commit (persist) or let the caller's defer Rollback run (revert)
// — exactly one of the two should execute per UnitOfWork, matching the
// "commits only happen at explicit commit() calls" rule.
type UnitOfWork interface {
	Channels() ChannelRepository
	Messages() MessageRepository
	Feedback() FeedbackRepository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory begins a new UnitOfWork, the way a real factory opens
// a transaction against a shared database connection pool.
type UnitOfWorkFactory interface {
	Begin() UnitOfWork
}
