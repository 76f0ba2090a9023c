package ingest_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/ingest"
)

func TestMergeIntervalExampleE4(t *testing.T) {
	existing := []model.Interval{{Start: 10, End: 20}, {Start: 30, End: 40}}
	got := ingest.MergeInterval(existing, model.Interval{Start: 18, End: 32})
	require.Equal(t, []model.Interval{{Start: 10, End: 40}}, got)
}

func TestMergeIntervalNoOverlapKeepsBothSorted(t *testing.T) {
	existing := []model.Interval{{Start: 10, End: 20}}
	got := ingest.MergeInterval(existing, model.Interval{Start: 30, End: 40})
	require.Equal(t, []model.Interval{{Start: 10, End: 20}, {Start: 30, End: 40}}, got)
}

func TestMergeIntervalTouchingEndpointsMerge(t *testing.T) {
	existing := []model.Interval{{Start: 10, End: 20}}
	got := ingest.MergeInterval(existing, model.Interval{Start: 20, End: 25})
	require.Equal(t, []model.Interval{{Start: 10, End: 25}}, got)
}

// TestMergeIntervalInvariant asserts invariant 1 from the testable
// properties list: after any sequence of insertions, the stored interval
// list is sorted ascending by start and no two adjacent intervals overlap.
func TestMergeIntervalInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	intervalGen := gen.Int64Range(0, 1000).FlatMap(func(start any) gopter.Gen {
		s := start.(int64)
		return gen.Int64Range(s, s+50).Map(func(end int64) model.Interval {
			return model.Interval{Start: s, End: end}
		})
	}, reflect.TypeOf(model.Interval{}))

	properties.Property("repeated merge preserves sortedness and non-overlap", prop.ForAll(
		func(intervals []model.Interval) bool {
			var merged []model.Interval
			for _, iv := range intervals {
				merged = ingest.MergeInterval(merged, iv)
			}
			for i := 0; i+1 < len(merged); i++ {
				if merged[i].Start > merged[i+1].Start {
					return false
				}
				if merged[i].End >= merged[i+1].Start {
					return false // adjacent intervals should have been merged
				}
			}
			return true
		},
		gen.SliceOfN(20, intervalGen),
	))

	properties.TestingRun(t)
}
