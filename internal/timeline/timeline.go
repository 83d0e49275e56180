package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Epsilon is the tolerance used when comparing timeline boundaries (1 ms).
const Epsilon = 0.001

var (
	// ErrInvalidDuration is returned when the narration duration is zero or negative
	ErrInvalidDuration = errors.New("invalid narration duration")

	// ErrInsufficientAssets is returned when the image pool is empty
	ErrInsufficientAssets = errors.New("insufficient image assets")

	// ErrTimeOutOfRange is returned when a frame is requested outside the timeline
	ErrTimeOutOfRange = errors.New("time out of timeline range")
)

// Segment is one image's time-bounded appearance in the timeline.
// FadeIn/FadeOut are the crossfade durations shared with the previous
// and next segment; the first segment has no FadeIn and the last no FadeOut.
type Segment struct {
	ImageIndex int     `yaml:"image"`
	Start      float64 `yaml:"start"`
	End        float64 `yaml:"end"`
	FadeIn     float64 `yaml:"fade_in"`
	FadeOut    float64 `yaml:"fade_out"`
}

// Span returns the segment's own visible duration
func (s Segment) Span() float64 {
	return s.End - s.Start
}

// Timeline is the full ordered segment sequence for one run.
// It is immutable once planned.
type Timeline struct {
	Total    float64   `yaml:"total"`
	Segments []Segment `yaml:"segments"`
}

// SegmentAt locates the segment active at time t by binary search.
// t may equal Total; it resolves to the final segment.
func (tl *Timeline) SegmentAt(t float64) (int, error) {
	if t < -Epsilon || t > tl.Total+Epsilon {
		return 0, fmt.Errorf("t=%.3fs outside [0, %.3fs]: %w", t, tl.Total, ErrTimeOutOfRange)
	}

	// Find the first segment starting after t; the one before it is active
	i := sort.Search(len(tl.Segments), func(i int) bool {
		return tl.Segments[i].Start > t
	}) - 1

	if i < 0 {
		i = 0
	}
	if i > len(tl.Segments)-1 {
		i = len(tl.Segments) - 1
	}
	return i, nil
}

// Blend describes what is visible at one instant: the active segment and,
// inside a crossfade window, the incoming neighbour with its mix weight.
// Outside any window From == To and Alpha == 0.
type Blend struct {
	From  int
	To    int
	Alpha float64
}

// BlendAt resolves the crossfade state at time t. The window for the
// boundary between segments i and i+1 straddles the boundary symmetrically:
// [boundary-f/2, boundary+f/2], where f is the fade shared by the pair.
func (tl *Timeline) BlendAt(t float64) (Blend, error) {
	i, err := tl.SegmentAt(t)
	if err != nil {
		return Blend{}, err
	}
	seg := tl.Segments[i]

	if i > 0 {
		f := math.Min(tl.Segments[i-1].FadeOut, seg.FadeIn)
		if f > 0 && t < seg.Start+f/2 {
			alpha := (t - (seg.Start - f/2)) / f
			return Blend{From: i - 1, To: i, Alpha: clamp01(alpha)}, nil
		}
	}
	if i < len(tl.Segments)-1 {
		f := math.Min(seg.FadeOut, tl.Segments[i+1].FadeIn)
		if f > 0 && t >= seg.End-f/2 {
			alpha := (t - (seg.End - f/2)) / f
			return Blend{From: i, To: i + 1, Alpha: clamp01(alpha)}, nil
		}
	}
	return Blend{From: i, To: i}, nil
}

// Validate checks every structural invariant of the timeline: coverage of
// [0, Total] with no gaps, increasing starts, non-negative fades and
// fades never exceeding the owning segment's span.
func (tl *Timeline) Validate() error {
	if len(tl.Segments) == 0 {
		return fmt.Errorf("timeline has no segments")
	}
	if tl.Total <= 0 {
		return fmt.Errorf("timeline total %.3fs: %w", tl.Total, ErrInvalidDuration)
	}
	if math.Abs(tl.Segments[0].Start) > Epsilon {
		return fmt.Errorf("first segment starts at %.4fs, want 0", tl.Segments[0].Start)
	}
	last := tl.Segments[len(tl.Segments)-1]
	if math.Abs(last.End-tl.Total) > Epsilon {
		return fmt.Errorf("last segment ends at %.4fs, want %.4fs", last.End, tl.Total)
	}

	for i, s := range tl.Segments {
		if s.ImageIndex < 0 {
			return fmt.Errorf("segment %d: negative image index %d", i, s.ImageIndex)
		}
		if s.Span() <= 0 {
			return fmt.Errorf("segment %d: non-positive span %.4fs", i, s.Span())
		}
		if s.FadeIn < 0 || s.FadeOut < 0 {
			return fmt.Errorf("segment %d: negative fade", i)
		}
		if s.FadeIn+s.FadeOut > s.Span()+Epsilon {
			return fmt.Errorf("segment %d: fades %.4fs exceed span %.4fs", i, s.FadeIn+s.FadeOut, s.Span())
		}
		if i > 0 {
			prev := tl.Segments[i-1]
			if math.Abs(prev.End-s.Start) > Epsilon {
				return fmt.Errorf("gap between segments %d and %d: %.4fs != %.4fs", i-1, i, prev.End, s.Start)
			}
			if s.Start <= prev.Start {
				return fmt.Errorf("segment %d does not start after segment %d", i, i-1)
			}
		}
	}

	if tl.Segments[0].FadeIn != 0 {
		return fmt.Errorf("first segment has fade-in %.4fs, want 0", tl.Segments[0].FadeIn)
	}
	if last.FadeOut != 0 {
		return fmt.Errorf("last segment has fade-out %.4fs, want 0", last.FadeOut)
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
