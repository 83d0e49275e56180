package timeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Storyboard is the persisted form of a planned timeline. Saving one lets
// a run be reviewed or hand-tuned, then replayed against a new narration.
type Storyboard struct {
	Version  string   `yaml:"version"`
	Timeline Timeline `yaml:"timeline"`
}

// StoryboardVersion is the current storyboard file format version
const StoryboardVersion = "1.0"

// WriteStoryboard writes a timeline to a YAML file
func WriteStoryboard(tl *Timeline, path string) error {
	sb := Storyboard{Version: StoryboardVersion, Timeline: *tl}
	data, err := yaml.Marshal(&sb)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadStoryboard reads a timeline from a YAML file and validates it
func ReadStoryboard(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sb Storyboard
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, err
	}

	tl := sb.Timeline
	if err := tl.Validate(); err != nil {
		return nil, fmt.Errorf("storyboard %s: %w", path, err)
	}
	return &tl, nil
}

// Rescale returns a copy of the timeline scaled uniformly so its total
// matches a new narration duration. Uniform scaling preserves every
// structural invariant, so a valid storyboard stays valid.
func (tl *Timeline) Rescale(total float64) (*Timeline, error) {
	if total <= 0 {
		return nil, fmt.Errorf("rescale to %.3fs: %w", total, ErrInvalidDuration)
	}
	if tl.Total <= 0 {
		return nil, fmt.Errorf("rescale of empty timeline: %w", ErrInvalidDuration)
	}

	scale := total / tl.Total
	out := &Timeline{Total: total, Segments: make([]Segment, len(tl.Segments))}
	for i, s := range tl.Segments {
		out.Segments[i] = Segment{
			ImageIndex: s.ImageIndex,
			Start:      s.Start * scale,
			End:        s.End * scale,
			FadeIn:     s.FadeIn * scale,
			FadeOut:    s.FadeOut * scale,
		}
	}
	out.Segments[0].Start = 0
	out.Segments[len(out.Segments)-1].End = total
	return out, nil
}
