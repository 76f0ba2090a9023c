// Package feedback implements the SubmitFeedback chat handler's backing
// sink: a score upsert keyed by (message_id, trace_id).
package feedback

import (
	"context"

	"github.com/google/uuid"
	chatmodel "onyx.dev/onyx/internal/chat/model"
	"onyx.dev/onyx/internal/chat/store"
	"onyx.dev/onyx/internal/onyxerr"
)

// Submit is the feedback sink's entry point: validate the score, load the
// unit of work, and upsert the feedback row.
type Submit struct {
	Factory store.UnitOfWorkFactory
}

// NewSubmit returns a Submit sink over factory.
func NewSubmit(factory store.UnitOfWorkFactory) *Submit {
	return &Submit{Factory: factory}
}

// Run upserts feedback for messageID/traceID, failing with
// KindInvalidArgument if score is outside {-1, 0, 1}.
func (s *Submit) Run(ctx context.Context, messageID uuid.UUID, traceID string, score int, comment string) error {
	if score < -1 || score > 1 {
		return onyxerr.Newf(onyxerr.KindInvalidArgument, "feedback score %d out of range [-1, 1]", score)
	}

	uow := s.Factory.Begin()
	if _, err := uow.Messages().Get(ctx, messageID); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	if err := uow.Feedback().Upsert(ctx, &chatmodel.Feedback{
		MessageID: messageID,
		TraceID:   traceID,
		Score:     score,
		Comment:   comment,
	}); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}

	return uow.Commit(ctx)
}
