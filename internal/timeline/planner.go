package timeline

import (
	"fmt"
	"math"
)

// Named defaults for the plan settings
const (
	DefaultMinSegment = 2.5
	DefaultMaxSegment = 5.0
	DefaultCrossfade  = 0.5
)

// PlanConfig holds the planning settings: how long a single image may stay
// on screen and how long neighbouring images crossfade.
type PlanConfig struct {
	MinSegment float64 `yaml:"min_segment"`
	MaxSegment float64 `yaml:"max_segment"`
	Crossfade  float64 `yaml:"crossfade"`
}

// DefaultPlanConfig returns the documented defaults (2.5s / 5.0s / 0.5s)
func DefaultPlanConfig() PlanConfig {
	return PlanConfig{
		MinSegment: DefaultMinSegment,
		MaxSegment: DefaultMaxSegment,
		Crossfade:  DefaultCrossfade,
	}
}

// normalized fills zero values with defaults and orders the bounds
func (c PlanConfig) normalized() PlanConfig {
	if c.MinSegment <= 0 {
		c.MinSegment = DefaultMinSegment
	}
	if c.MaxSegment <= 0 {
		c.MaxSegment = DefaultMaxSegment
	}
	if c.MaxSegment < c.MinSegment {
		c.MinSegment, c.MaxSegment = c.MaxSegment, c.MinSegment
	}
	if c.Crossfade < 0 {
		c.Crossfade = 0
	}
	return c
}

// Plan divides [0, totalDuration] into contiguous segments, one image each,
// cycling through the pool round-robin. The result always satisfies the
// Timeline invariants: no gaps, exact coverage, fades never exceeding a
// segment's own span, no fade-in/out at the absolute ends of the video.
func Plan(totalDuration float64, imageCount int, cfg PlanConfig) (*Timeline, error) {
	if imageCount < 1 {
		return nil, fmt.Errorf("plan: image pool is empty: %w", ErrInsufficientAssets)
	}
	if totalDuration <= 0 {
		return nil, fmt.Errorf("plan: total %.3fs: %w", totalDuration, ErrInvalidDuration)
	}
	cfg = cfg.normalized()

	// Target segment count from the middle of the allowed range
	mid := (cfg.MinSegment + cfg.MaxSegment) / 2
	k := int(math.Round(totalDuration / mid))
	if k < 1 {
		k = 1
	}

	d := totalDuration / float64(k)
	if d < cfg.MinSegment || d > cfg.MaxSegment {
		// The even split falls outside the range: clamp the per-segment
		// duration to the nearest bound and let the final segment absorb
		// the remainder.
		if d < cfg.MinSegment {
			d = cfg.MinSegment
		} else {
			d = cfg.MaxSegment
		}
		k = int(math.Ceil(totalDuration / d))
		if k < 1 {
			k = 1
		}
	}

	tail := totalDuration - d*float64(k-1)
	if k > 1 && tail < cfg.Crossfade {
		// The remainder is shorter than one crossfade; merge it into the
		// previous segment instead of producing a sliver.
		k--
		tail += d
	}

	segments := make([]Segment, k)
	start := 0.0
	for i := 0; i < k; i++ {
		span := d
		if i == k-1 {
			span = tail
		}
		seg := Segment{
			ImageIndex: i % imageCount,
			Start:      start,
			End:        start + span,
		}
		if i > 0 {
			seg.FadeIn = cfg.Crossfade
		}
		if i < k-1 {
			seg.FadeOut = cfg.Crossfade
		}
		// A short segment cannot host two full fades; shrink them locally
		if span < 2*cfg.Crossfade {
			half := span / 2
			if seg.FadeIn > half {
				seg.FadeIn = half
			}
			if seg.FadeOut > half {
				seg.FadeOut = half
			}
		}
		segments[i] = seg
		start = seg.End
	}
	segments[k-1].End = totalDuration

	return &Timeline{Total: totalDuration, Segments: segments}, nil
}
