package interval_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"cleancut/internal/interval"
	"cleancut/internal/services"
)

const epsilon = 1e-9

func spans(pairs ...float64) []interval.Interval {
	out := make([]interval.Interval, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, interval.Interval{Start: pairs[i], End: pairs[i+1]})
	}
	return out
}

func bounds(intervals []interval.Interval) [][2]float64 {
	out := make([][2]float64, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, [2]float64{iv.Start, iv.End})
	}
	return out
}

func TestNewRejectsMalformedIntervals(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
	}{
		{"inverted", 5, 4},
		{"negative start", -1, 2},
		{"nan", math.NaN(), 2},
		{"infinite end", 1, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interval.New(tt.start, tt.end)
			if !errors.Is(err, interval.ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
			if !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected invalid input marker, got %v", err)
			}
		})
	}

	iv, err := interval.New(1, 1)
	if err != nil || iv.Duration() != 0 {
		t.Fatalf("expected zero-length interval to be valid, got %v %v", iv, err)
	}
}

func TestNewCopiesReasons(t *testing.T) {
	reasons := []interval.Reason{{Category: interval.CategoryNudity, Label: "a"}}
	iv := interval.MustNew(0, 1, reasons...)
	reasons[0].Label = "mutated"
	if iv.Reasons[0].Label != "a" {
		t.Fatal("interval shares reason storage with caller")
	}
}

func TestMergeCoalescesWithinGap(t *testing.T) {
	nudity := []interval.Interval{
		interval.MustNew(12.3, 14.0, interval.Reason{Category: interval.CategoryNudity, Label: "b"}),
		interval.MustNew(10.0, 12.0, interval.Reason{Category: interval.CategoryNudity, Label: "a"}),
	}
	merged := interval.Merge(nudity, 0.5)
	if got := bounds(merged); !reflect.DeepEqual(got, [][2]float64{{10, 14}}) {
		t.Fatalf("Merge = %v, want single (10,14)", got)
	}
	if len(merged[0].Reasons) != 2 || merged[0].Reasons[0].Label != "a" {
		t.Fatalf("expected reasons unioned in start order, got %v", merged[0].Reasons)
	}
	if nudity[0].Start != 12.3 {
		t.Fatal("Merge mutated its input")
	}
}

func TestMergeUsesRunningMaximumEnd(t *testing.T) {
	// The long span keeps the group open for the third span even though the
	// second span ends early.
	merged := interval.Merge(spans(0, 10, 1, 2, 10.4, 11), 0.5)
	if got := bounds(merged); !reflect.DeepEqual(got, [][2]float64{{0, 11}}) {
		t.Fatalf("Merge = %v", got)
	}
}

func TestMergeDeduplicatesReasons(t *testing.T) {
	r := interval.Reason{Category: interval.CategoryProfanity, Label: "word"}
	merged := interval.Merge([]interval.Interval{
		interval.MustNew(1, 2, r),
		interval.MustNew(1.5, 3, r),
	}, 0)
	if len(merged) != 1 || len(merged[0].Reasons) != 1 {
		t.Fatalf("expected single deduplicated reason, got %+v", merged)
	}
}

func TestMergeEdgeCases(t *testing.T) {
	if got := interval.Merge(nil, 1); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	touching := interval.Merge(spans(0, 1, 1, 2), 0)
	if len(touching) != 1 {
		t.Fatalf("expected touching spans to merge at zero gap, got %v", bounds(touching))
	}
	separate := interval.Merge(spans(0, 1, 1.5, 2), -3)
	if len(separate) != 2 {
		t.Fatalf("expected negative gap to behave as zero, got %v", bounds(separate))
	}
}

func TestMergePropertiesRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 500; iter++ {
		n := rng.IntN(20)
		input := make([]interval.Interval, 0, n)
		for i := 0; i < n; i++ {
			start := rng.Float64() * 100
			input = append(input, interval.Interval{Start: start, End: start + rng.Float64()*5})
		}
		gap := rng.Float64() * 2

		merged := interval.Merge(input, gap)
		for i := 1; i < len(merged); i++ {
			prev, cur := merged[i-1], merged[i]
			if cur.Start <= prev.End+gap {
				t.Fatalf("iteration %d: adjacent results within gap: %v then %v (gap %v)", iter, prev, cur, gap)
			}
		}
		for _, iv := range input {
			covered := false
			for _, m := range merged {
				if iv.Start >= m.Start && iv.End <= m.End {
					covered = true
					break
				}
			}
			if !covered {
				t.Fatalf("iteration %d: input %v not covered by merged output", iter, iv)
			}
		}
	}
}

func TestKeepSegmentsComplement(t *testing.T) {
	keep, err := interval.KeepSegments(60, spans(10, 15), 0.5)
	if err != nil {
		t.Fatalf("KeepSegments: %v", err)
	}
	if got := bounds(keep); !reflect.DeepEqual(got, [][2]float64{{0, 10}, {15, 60}}) {
		t.Fatalf("KeepSegments = %v", got)
	}
}

func TestKeepSegmentsDropsShortFragmentsWithoutMerging(t *testing.T) {
	keep, err := interval.KeepSegments(30, spans(0.2, 10, 10.3, 20), 0.5)
	if err != nil {
		t.Fatalf("KeepSegments: %v", err)
	}
	if got := bounds(keep); !reflect.DeepEqual(got, [][2]float64{{20, 30}}) {
		t.Fatalf("expected only trailing segment, got %v", got)
	}
}

func TestKeepSegmentsClampsAndHandlesEdges(t *testing.T) {
	keep, err := interval.KeepSegments(20, spans(0, 5, 18, 25), 0)
	if err != nil {
		t.Fatalf("KeepSegments: %v", err)
	}
	if got := bounds(keep); !reflect.DeepEqual(got, [][2]float64{{5, 18}}) {
		t.Fatalf("KeepSegments = %v", got)
	}

	whole, err := interval.KeepSegments(20, nil, 0)
	if err != nil || len(whole) != 1 || whole[0].Start != 0 || whole[0].End != 20 {
		t.Fatalf("expected whole asset kept, got %v %v", bounds(whole), err)
	}

	none, err := interval.KeepSegments(20, spans(0, 20), 0)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected nothing kept, got %v %v", bounds(none), err)
	}
}

func TestKeepSegmentsRejectsBadInput(t *testing.T) {
	if _, err := interval.KeepSegments(0, nil, 0); !errors.Is(err, interval.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := interval.KeepSegments(math.NaN(), nil, 0); !errors.Is(err, interval.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for NaN, got %v", err)
	}
	_, err := interval.KeepSegments(60, spans(10, 20, 15, 25), 0)
	if !errors.Is(err, interval.ErrUnsortedCuts) || !errors.Is(err, services.ErrPlanning) {
		t.Fatalf("expected ErrUnsortedCuts for overlapping cuts, got %v", err)
	}
	if _, err := interval.KeepSegments(60, spans(30, 40, 10, 20), 0); !errors.Is(err, interval.ErrUnsortedCuts) {
		t.Fatalf("expected ErrUnsortedCuts for out of order cuts, got %v", err)
	}
	if _, err := interval.KeepSegments(60, spans(10, 20, 20, 25), 0); err != nil {
		t.Fatalf("touching cuts should be accepted: %v", err)
	}
}

func TestKeepSegmentsPartitionRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for iter := 0; iter < 500; iter++ {
		duration := 1 + rng.Float64()*200
		var raw []interval.Interval
		for i := rng.IntN(15); i > 0; i-- {
			start := rng.Float64() * duration
			end := math.Min(duration, start+rng.Float64()*10)
			raw = append(raw, interval.Interval{Start: start, End: end})
		}
		cuts := interval.Merge(raw, 0)

		keep, err := interval.KeepSegments(duration, cuts, 0)
		if err != nil {
			t.Fatalf("iteration %d: %v", iter, err)
		}
		total := interval.TotalDuration(keep) + interval.TotalDuration(cuts)
		if math.Abs(total-duration) > epsilon {
			t.Fatalf("iteration %d: keep+cuts = %v, want %v", iter, total, duration)
		}
		for _, k := range keep {
			for _, c := range cuts {
				if k.Overlaps(c) {
					t.Fatalf("iteration %d: keep %v overlaps cut %v", iter, k, c)
				}
			}
		}
	}
}

func TestFilterClipAndTotal(t *testing.T) {
	input := spans(0, 0.2, 1, 3, 5, 9)
	long := interval.Filter(input, interval.MinDuration(1))
	if got := bounds(long); !reflect.DeepEqual(got, [][2]float64{{1, 3}, {5, 9}}) {
		t.Fatalf("Filter = %v", got)
	}

	clipped := interval.Clip(spans(-1, 2, 4, 4, 7, 12, 12, 15), 0, 10)
	if got := bounds(clipped); !reflect.DeepEqual(got, [][2]float64{{0, 2}, {4, 4}, {7, 10}}) {
		t.Fatalf("Clip = %v", got)
	}

	if got := interval.TotalDuration(input); math.Abs(got-6.2) > epsilon {
		t.Fatalf("TotalDuration = %v", got)
	}
}

func TestOverlapsIsStrict(t *testing.T) {
	a := interval.MustNew(0, 5)
	if a.Overlaps(interval.MustNew(5, 6)) {
		t.Fatal("touching spans must not overlap")
	}
	if !a.Overlaps(interval.MustNew(4.9, 6)) {
		t.Fatal("expected overlap")
	}
	if a.Overlaps(interval.MustNew(3, 3)) {
		t.Fatal("zero-length span has no interior to overlap")
	}
}

func TestDescribeRendersDisplayNames(t *testing.T) {
	iv := interval.MustNew(0, 1,
		interval.Reason{Category: interval.CategorySexualContent, Label: "dialog", Score: 0.82},
		interval.Reason{Category: interval.CategoryManual},
	)
	if got := iv.Describe(); got != "Sexual Content: dialog (0.82); Manual" {
		t.Fatalf("Describe = %q", got)
	}
}
