package compositor

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/storyshort/internal/asset"
	"github.com/ivlev/storyshort/internal/timeline"
)

// Compositor resolves the frame visible at any instant of a planned
// timeline. All scaling work happens once in New; after construction the
// compositor is read-only, so FrameAt may be called from any number of
// workers concurrently and always produces bit-identical output for the
// same t.
type Compositor struct {
	timeline *timeline.Timeline
	plates   []*image.RGBA
	width    int
	height   int
	warnings []string
}

// New prepares a compositor for the given timeline, pool and target
// geometry. Every usable pool image is scaled to a cover-fill plate up
// front; malformed assets are substituted by their nearest valid
// neighbour with a recorded warning.
func New(tl *timeline.Timeline, pool []asset.ImageAsset, width, height int) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("compositor: invalid target geometry %dx%d", width, height)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("compositor: %w", timeline.ErrInsufficientAssets)
	}
	if err := tl.Validate(); err != nil {
		return nil, fmt.Errorf("compositor: %w", err)
	}

	c := &Compositor{
		timeline: tl,
		plates:   make([]*image.RGBA, len(pool)),
		width:    width,
		height:   height,
	}

	for i, a := range pool {
		if a.Malformed() {
			continue
		}
		c.plates[i] = coverFill(a.Image, width, height)
	}

	decoded := make([]*image.RGBA, len(c.plates))
	copy(decoded, c.plates)
	for i := range c.plates {
		if c.plates[i] != nil {
			continue
		}
		j := nearestValid(decoded, i)
		if j < 0 {
			return nil, fmt.Errorf("compositor: no usable image in pool of %d: %w", len(pool), asset.ErrMalformedAsset)
		}
		c.warnings = append(c.warnings,
			fmt.Sprintf("asset %d (%s) is malformed, substituting asset %d (%s)", i, pool[i].Label, j, pool[j].Label))
		c.plates[i] = c.plates[j]
	}

	return c, nil
}

// Size returns the target frame geometry
func (c *Compositor) Size() (int, int) {
	return c.width, c.height
}

// Warnings lists the degradations applied while preparing the pool
func (c *Compositor) Warnings() []string {
	return c.warnings
}

// FrameAt renders the frame at time t into a freshly allocated buffer of
// exactly the target geometry.
func (c *Compositor) FrameAt(t float64) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	if err := c.FrameInto(t, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// FrameInto renders the frame at time t into a caller-owned buffer, which
// must match the target geometry. The pixels are identical to FrameAt's;
// the variant exists so the encoder can recycle frame buffers.
func (c *Compositor) FrameInto(t float64, dst *image.RGBA) error {
	if dst == nil || dst.Bounds().Dx() != c.width || dst.Bounds().Dy() != c.height {
		return fmt.Errorf("frame buffer does not match target geometry %dx%d", c.width, c.height)
	}

	b, err := c.timeline.BlendAt(t)
	if err != nil {
		return err
	}

	from := c.plateFor(b.From)
	if b.From == b.To || b.Alpha <= 0 {
		copyPlate(dst, from)
		return nil
	}
	to := c.plateFor(b.To)
	if b.Alpha >= 1 {
		copyPlate(dst, to)
		return nil
	}

	blendGamma(dst, from, to, b.Alpha)
	return nil
}

// plateFor maps a segment to its prepared plate, cycling through the pool
// when a storyboard references more images than the pool holds
func (c *Compositor) plateFor(segIndex int) *image.RGBA {
	idx := c.timeline.Segments[segIndex].ImageIndex % len(c.plates)
	return c.plates[idx]
}

func copyPlate(dst, src *image.RGBA) {
	copy(dst.Pix, src.Pix)
}

// coverFill scales src to fill a width x height frame without distorting
// the aspect ratio: the source is center-cropped to the target aspect and
// resampled with Catmull-Rom.
func coverFill(src image.Image, width, height int) *image.RGBA {
	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()

	crop := sb
	// Compare aspects via cross-multiplication to stay in integers
	if srcW*height > width*srcH {
		// Source is wider than the target: crop left/right
		cropW := srcH * width / height
		if cropW < 1 {
			cropW = 1
		}
		x0 := sb.Min.X + (srcW-cropW)/2
		crop = image.Rect(x0, sb.Min.Y, x0+cropW, sb.Max.Y)
	} else if srcW*height < width*srcH {
		// Source is taller than the target: crop top/bottom
		cropH := srcW * height / width
		if cropH < 1 {
			cropH = 1
		}
		y0 := sb.Min.Y + (srcH-cropH)/2
		crop = image.Rect(sb.Min.X, y0, sb.Max.X, y0+cropH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

func nearestValid(plates []*image.RGBA, i int) int {
	for d := 1; d < len(plates); d++ {
		if i-d >= 0 && plates[i-d] != nil {
			return i - d
		}
		if i+d < len(plates) && plates[i+d] != nil {
			return i + d
		}
	}
	return -1
}
