package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestPlanDefaultScenario(t *testing.T) {
	tl, err := Plan(12.0, 4, DefaultPlanConfig())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len(tl.Segments) < 3 || len(tl.Segments) > 4 {
		t.Errorf("Expected 3-4 segments for 12s, got %d", len(tl.Segments))
	}

	uses := map[int]int{}
	for _, s := range tl.Segments {
		if s.ImageIndex < 0 || s.ImageIndex > 3 {
			t.Errorf("Image index %d outside pool of 4", s.ImageIndex)
		}
		uses[s.ImageIndex]++
	}
	for idx, n := range uses {
		if n > 2 {
			t.Errorf("Image %d used %d times, want at most 2", idx, n)
		}
	}

	last := tl.Segments[len(tl.Segments)-1]
	if math.Abs(last.End-12.0) > Epsilon {
		t.Errorf("Timeline ends at %.4fs, want 12.0s", last.End)
	}

	for i, s := range tl.Segments {
		t.Logf("Segment %d: image=%d [%.2fs..%.2fs] fades %.2f/%.2f", i, s.ImageIndex, s.Start, s.End, s.FadeIn, s.FadeOut)
	}
}

func TestPlanInvariantsSweep(t *testing.T) {
	durations := []float64{0.3, 1.0, 2.4, 2.5, 3.0, 5.3, 7.1, 12.0, 30.01, 59.9, 121.7}
	imageCounts := []int{1, 2, 3, 7, 25}
	configs := []PlanConfig{
		{},
		DefaultPlanConfig(),
		{MinSegment: 1.0, MaxSegment: 2.0, Crossfade: 0.3},
		{MinSegment: 4.0, MaxSegment: 4.0, Crossfade: 1.5},
		{MinSegment: 2.0, MaxSegment: 6.0, Crossfade: 0},
	}

	for _, dur := range durations {
		for _, count := range imageCounts {
			for ci, cfg := range configs {
				tl, err := Plan(dur, count, cfg)
				if err != nil {
					t.Fatalf("Plan(%.2f, %d, cfg%d) failed: %v", dur, count, ci, err)
				}
				if err := tl.Validate(); err != nil {
					t.Errorf("Plan(%.2f, %d, cfg%d) invalid: %v", dur, count, ci, err)
				}
				for i, s := range tl.Segments {
					if s.ImageIndex != i%count {
						t.Errorf("Plan(%.2f, %d, cfg%d) segment %d: image %d, want round-robin %d",
							dur, count, ci, i, s.ImageIndex, i%count)
					}
				}
			}
		}
	}
}

func TestPlanSpanDistribution(t *testing.T) {
	cfg := DefaultPlanConfig()
	tl, err := Plan(100.0, 10, cfg)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	// Spans must sum to the narration duration exactly
	sum := 0.0
	for _, s := range tl.Segments {
		sum += s.Span()
	}
	if math.Abs(sum-100.0) > Epsilon {
		t.Errorf("Spans sum to %.4fs, want 100.0s", sum)
	}

	// Every segment except the last stays inside the configured bounds;
	// the last absorbs the remainder but never doubles past the maximum
	for i, s := range tl.Segments[:len(tl.Segments)-1] {
		if s.Span() < cfg.MinSegment-Epsilon || s.Span() > cfg.MaxSegment+Epsilon {
			t.Errorf("Segment %d span %.4fs outside [%.2f, %.2f]", i, s.Span(), cfg.MinSegment, cfg.MaxSegment)
		}
	}
	last := tl.Segments[len(tl.Segments)-1]
	if last.Span() < cfg.Crossfade || last.Span() > 2*cfg.MaxSegment+Epsilon {
		t.Errorf("Final segment span %.4fs outside (%.2f, %.2f]", last.Span(), cfg.Crossfade, 2*cfg.MaxSegment)
	}
}

func TestPlanSingleImage(t *testing.T) {
	tl, err := Plan(20.0, 1, DefaultPlanConfig())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	for i, s := range tl.Segments {
		if s.ImageIndex != 0 {
			t.Errorf("Segment %d references image %d, want 0", i, s.ImageIndex)
		}
	}
	if len(tl.Segments) < 2 {
		t.Errorf("Expected several segments over 20s, got %d", len(tl.Segments))
	}
}

func TestPlanShorterThanMinSegment(t *testing.T) {
	tl, err := Plan(1.2, 5, DefaultPlanConfig())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(tl.Segments) != 1 {
		t.Fatalf("Expected exactly 1 segment for 1.2s, got %d", len(tl.Segments))
	}

	s := tl.Segments[0]
	if s.Start != 0 || math.Abs(s.End-1.2) > Epsilon {
		t.Errorf("Segment spans [%.3f..%.3f], want [0..1.2]", s.Start, s.End)
	}
	if s.FadeIn != 0 || s.FadeOut != 0 {
		t.Errorf("Single segment has fades %.2f/%.2f, want 0/0", s.FadeIn, s.FadeOut)
	}
}

func TestPlanTailMerge(t *testing.T) {
	// 5.3s forces the clamped branch: one 5.0s segment would leave a
	// 0.3s sliver shorter than the crossfade, so it must be merged
	tl, err := Plan(5.3, 3, DefaultPlanConfig())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	for i, s := range tl.Segments {
		if s.Span() < DefaultCrossfade {
			t.Errorf("Segment %d span %.3fs is shorter than the crossfade", i, s.Span())
		}
	}
}

func TestPlanShortSpanReducesFades(t *testing.T) {
	// 1s segments with a 0.8s crossfade cannot hold two full fades
	cfg := PlanConfig{MinSegment: 1.0, MaxSegment: 1.0, Crossfade: 0.8}
	tl, err := Plan(4.0, 2, cfg)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	for i, s := range tl.Segments {
		if s.FadeIn+s.FadeOut > s.Span()+Epsilon {
			t.Errorf("Segment %d fades %.3fs exceed span %.3fs", i, s.FadeIn+s.FadeOut, s.Span())
		}
	}
}

func TestPlanErrors(t *testing.T) {
	if _, err := Plan(10.0, 0, DefaultPlanConfig()); !errors.Is(err, ErrInsufficientAssets) {
		t.Errorf("Plan with 0 images: got %v, want ErrInsufficientAssets", err)
	}
	if _, err := Plan(0, 3, DefaultPlanConfig()); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Plan with 0 duration: got %v, want ErrInvalidDuration", err)
	}
	if _, err := Plan(-5.0, 3, DefaultPlanConfig()); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Plan with negative duration: got %v, want ErrInvalidDuration", err)
	}
}
