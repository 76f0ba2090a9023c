package ingest

import (
	"sort"

	"onyx.dev/onyx/internal/catalog/model"
)

// MergeInterval inserts interval into sorted, preserving the bookmark
// invariant: the result is sorted ascending by Start, and any adjacent pair
// with arr[i].End >= arr[i+1].Start has been merged into
// {Start: arr[i].Start, End: max(arr[i].End, arr[i+1].End)}. sorted is
// assumed to already satisfy the invariant; it is not mutated in place, a
// new slice is returned.
func MergeInterval(sorted []model.Interval, interval model.Interval) []model.Interval {
	merged := make([]model.Interval, 0, len(sorted)+1)
	merged = append(merged, sorted...)
	merged = append(merged, interval)

	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	out := merged[:0:0]
	for _, iv := range merged {
		if len(out) == 0 {
			out = append(out, iv)
			continue
		}
		last := out[len(out)-1]
		if last.Overlaps(iv) {
			out[len(out)-1] = last.Merge(iv)
		} else {
			out = append(out, iv)
		}
	}
	return out
}
