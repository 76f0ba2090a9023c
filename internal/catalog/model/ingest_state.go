package model

import (
	"time"

	"github.com/google/uuid"
)

// Interval is a closed range of source timestamps, expressed as unix
// seconds, known to have been ingested for one stream.
type Interval struct {
	Start int64
	End   int64
}

// Overlaps reports whether the receiver and other should be merged under
// the bookmark invariant: sorted ascending by Start, merge whenever
// arr[i].End >= arr[i+1].Start.
func (i Interval) Overlaps(other Interval) bool {
	return i.End >= other.Start
}

// Merge returns the smallest interval covering both i and other. Callers
// should only call Merge after confirming Overlaps.
func (i Interval) Merge(other Interval) Interval {
	end := i.End
	if other.End > end {
		end = other.End
	}
	return Interval{Start: i.Start, End: end}
}

// IngestState is the per-integration ingest bookkeeping record: the
// bookmark intervals known to be ingested for each stream, plus the
// integration's overall sync status.
type IngestState struct {
	IntegrationID       uuid.UUID
	Bookmarks           map[string][]Interval
	SyncStatus          SyncStatus
	SyncError           string
	LastSyncedAt        *time.Time
	LastSuccessBookmark *int64
}

// NewIngestState returns an empty IngestState for the given integration.
func NewIngestState(integrationID uuid.UUID) *IngestState {
	return &IngestState{
		IntegrationID: integrationID,
		Bookmarks:     make(map[string][]Interval),
		SyncStatus:    SyncStatusInitial,
	}
}
