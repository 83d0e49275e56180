package source

import (
	"fmt"
	"image"
	"strings"
)

// Source supplies the ordered raw images for one run's pool.
type Source interface {
	Count() int
	Label(i int) string
	Load(i int) (image.Image, error)
	Close() error
}

// Open picks a source implementation from a path: a .pdf becomes a deck
// source rendered page by page, anything else is treated as an image file
// or a directory of images.
func Open(path string, dpi int) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewFitzSource(path, dpi)
	}
	return NewImageSource(path)
}

// Combined chains several sources into one ordered pool, e.g. a directory
// of stills followed by a closing QR card.
type Combined struct {
	sources []Source
}

func NewCombined(sources ...Source) *Combined {
	return &Combined{sources: sources}
}

func (c *Combined) Count() int {
	n := 0
	for _, s := range c.sources {
		n += s.Count()
	}
	return n
}

func (c *Combined) Label(i int) string {
	s, j := c.resolve(i)
	if s == nil {
		return fmt.Sprintf("out-of-range %d", i)
	}
	return s.Label(j)
}

func (c *Combined) Load(i int) (image.Image, error) {
	s, j := c.resolve(i)
	if s == nil {
		return nil, fmt.Errorf("image index %d out of range", i)
	}
	return s.Load(j)
}

func (c *Combined) Close() error {
	var first error
	for _, s := range c.sources {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *Combined) resolve(i int) (Source, int) {
	for _, s := range c.sources {
		if i < s.Count() {
			return s, i
		}
		i -= s.Count()
	}
	return nil, 0
}
