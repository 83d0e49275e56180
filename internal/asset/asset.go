package asset

import (
	"errors"
	"fmt"
	"image"
)

// ErrMalformedAsset is returned when an image asset cannot be decoded or
// has unusable dimensions
var ErrMalformedAsset = errors.New("malformed image asset")

// AudioTrack is an immutable handle to the narration audio: its location
// and its probed duration in seconds.
type AudioTrack struct {
	Path     string
	Duration float64
}

// ImageAsset is one decoded entry of the image pool. A failed decode keeps
// its place in the pool with Err set, so selection order survives and the
// compositor can substitute a neighbour.
type ImageAsset struct {
	Image  image.Image
	Width  int
	Height int
	Label  string
	Err    error
}

// Malformed reports whether the asset is unusable for compositing
func (a ImageAsset) Malformed() bool {
	return a.Err != nil || a.Image == nil || a.Width <= 0 || a.Height <= 0
}

// Loader supplies raw pool images by index. internal/source implements it.
type Loader interface {
	Count() int
	Label(i int) string
	Load(i int) (image.Image, error)
}

// LoadPool decodes every pool entry in order. Individual decode failures do
// not abort the pool; the failed entry is kept and marked. An empty loader
// is ErrInsufficientAssets territory, but that decision belongs to the
// planner, so here it simply yields an empty pool.
func LoadPool(l Loader) []ImageAsset {
	pool := make([]ImageAsset, l.Count())
	for i := range pool {
		pool[i].Label = l.Label(i)
		img, err := l.Load(i)
		if err != nil {
			pool[i].Err = fmt.Errorf("%s: %v: %w", pool[i].Label, err, ErrMalformedAsset)
			continue
		}
		if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
			pool[i].Err = fmt.Errorf("%s: zero pixel dimensions: %w", pool[i].Label, ErrMalformedAsset)
			continue
		}
		pool[i].Image = img
		pool[i].Width = img.Bounds().Dx()
		pool[i].Height = img.Bounds().Dy()
	}
	return pool
}

// FromImage wraps an already-decoded image as a pool asset
func FromImage(img image.Image, label string) ImageAsset {
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return ImageAsset{Label: label, Err: fmt.Errorf("%s: zero pixel dimensions: %w", label, ErrMalformedAsset)}
	}
	return ImageAsset{
		Image:  img,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Label:  label,
	}
}
