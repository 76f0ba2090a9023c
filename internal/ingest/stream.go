// Package ingest implements the source→staging/embed-sink data-flow engine:
// the Stream abstraction, the StagingSink/EmbedSink write protocols, the
// bookmark-merge invariant, and the IngestController that drives one run
// for one integration.
package ingest

import (
	"context"
	"fmt"
	"time"

	"onyx.dev/onyx/internal/catalog/model"
)

// StreamContext carries the per-stream configuration the controller builds
// before driving a stream's drip loop.
type StreamContext struct {
	Name              string
	Properties        []string
	KeyProperties     []string
	BookmarkProperty  string
	BatchSize         int
	EmbeddingStrategy EmbeddingStrategy

	// RetryAttempts bounds how many times Drip retries a failed page
	// fetch (and, for a BatchExtractor stream, a batch of failed record
	// ids) before giving up. Defaults to 1 (no retry) if unset.
	RetryAttempts int
	// RetryBaseMillis/RetryMaxMillis parameterize the exponential backoff
	// between retries. Default to 200ms/5s if unset.
	RetryBaseMillis int64
	RetryMaxMillis  int64
}

// Record is one row/document extracted from a stream response, keyed by
// whatever KeyProperties the StreamContext names.
type Record map[string]any

// Stream exposes the five primitives the controller drives to pull
// incrementally from one external API sub-feed. Request and Response are
// opaque to the controller; only the Stream implementation understands
// their shape.
type Stream[Request, Response any] interface {
	// RequestFactory builds the first page request for the given interval.
	RequestFactory(ctx context.Context, sc StreamContext, interval model.Interval) (Request, error)
	// Retrieve executes one page request against the external API.
	Retrieve(ctx context.Context, req Request) (Response, error)
	// ExtractRecords pulls the records out of one page response.
	ExtractRecords(resp Response) ([]Record, error)
	// ExtractCursor returns the opaque pagination cursor for the next page,
	// or ("", false) if there is no next page.
	ExtractCursor(resp Response) (cursor string, ok bool)
	// MergeCursor folds cursor into req to build the next page's request.
	MergeCursor(req Request, cursor string) (Request, error)
}

// Batch is one page's worth of extracted records, handed to every sink's
// queue together.
type Batch struct {
	Stream  string
	Records []Record
}

// BatchExtractor is an optional Stream extension for providers whose page
// only lists record ids, with the records themselves resolved through a
// secondary per-item fetch (e.g. Gmail's messages.list + batch-GET). Drip
// prefers it over ExtractRecords so items that fail to resolve are
// retried individually, without re-fetching the whole page.
type BatchExtractor[Response any] interface {
	// ExtractBatch resolves resp's records, returning the ids of any
	// items that failed to resolve.
	ExtractBatch(ctx context.Context, resp Response) (records []Record, failedIDs []string, err error)
	// RefetchIDs retries previously failed ids, returning whichever now
	// resolved plus the ids still failing.
	RefetchIDs(ctx context.Context, ids []string) (records []Record, failedIDs []string, err error)
}

// Drip runs the request→retrieve→extract→advance loop for one stream,
// sending each non-empty batch to out. It stops when a page has no cursor
// or extracts no records, matching §4.4's drip-loop termination rule. Drip
// closes out before returning, whether it stops normally or via ctx
// cancellation.
func Drip[Request, Response any](ctx context.Context, s Stream[Request, Response], sc StreamContext, interval model.Interval, out chan<- Batch) error {
	defer close(out)

	req, err := s.RequestFactory(ctx, sc, interval)
	if err != nil {
		return err
	}

	attempts := sc.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := time.Duration(sc.RetryBaseMillis) * time.Millisecond
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	capMillis := time.Duration(sc.RetryMaxMillis) * time.Millisecond
	if capMillis <= 0 {
		capMillis = 5 * time.Second
	}
	backoff := ExponentialBackoff(base, capMillis)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var resp Response
		retrieveErr := Retry(ctx, attempts, backoff, func() error {
			r, err := s.Retrieve(ctx, req)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
		if retrieveErr != nil {
			return retrieveErr
		}

		records, err := extractWithRetry(ctx, s, resp, attempts, backoff)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		select {
		case out <- Batch{Stream: sc.Name, Records: records}:
		case <-ctx.Done():
			return ctx.Err()
		}

		cursor, ok := s.ExtractCursor(resp)
		if !ok {
			return nil
		}
		req, err = s.MergeCursor(req, cursor)
		if err != nil {
			return err
		}
	}
}

// extractWithRetry prefers a BatchExtractor implementation, retrying any
// failed ids up to attempts times with backoff instead of re-fetching the
// page; it falls back to the plain Stream.ExtractRecords otherwise.
func extractWithRetry[Request, Response any](ctx context.Context, s Stream[Request, Response], resp Response, attempts int, backoff func(int) int64) ([]Record, error) {
	be, ok := any(s).(BatchExtractor[Response])
	if !ok {
		return s.ExtractRecords(resp)
	}

	records, failedIDs, err := be.ExtractBatch(ctx, resp)
	if err != nil {
		return nil, err
	}
	for attempt := 1; attempt < attempts && len(failedIDs) > 0; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sleep(ctx, backoff(attempt-1))
		var recovered []Record
		recovered, failedIDs, err = be.RefetchIDs(ctx, failedIDs)
		if err != nil {
			return nil, err
		}
		records = append(records, recovered...)
	}
	if len(failedIDs) > 0 {
		return records, fmt.Errorf("ingest: %d record(s) still failing after %d attempt(s): %v", len(failedIDs), attempts, failedIDs)
	}
	return records, nil
}
