package compositor

import (
	"image"
	"math"
)

// The crossfade blends in linear light: sRGB values are linearized,
// mixed, and re-encoded. Blending in the stored gamma space would darken
// the midpoint of every fade.

// srgbLinear is the sRGB byte -> linear light lookup table
var srgbLinear = func() [256]float64 {
	var t [256]float64
	for i := range t {
		c := float64(i) / 255
		if c <= 0.04045 {
			t[i] = c / 12.92
		} else {
			t[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	return t
}()

func linearToSRGB(l float64) uint8 {
	if l <= 0 {
		return 0
	}
	if l >= 1 {
		return 255
	}
	var c float64
	if l <= 0.0031308 {
		c = l * 12.92
	} else {
		c = 1.055*math.Pow(l, 1/2.4) - 0.055
	}
	return uint8(math.Round(c * 255))
}

// blendGamma writes alpha*b + (1-alpha)*a into dst, gamma-correctly.
// A 256x256 mix table is built per call: one pow per table cell instead of
// one per pixel, and no state survives the call, keeping FrameInto pure.
func blendGamma(dst, a, b *image.RGBA, alpha float64) {
	var mix [256][256]uint8
	for va := 0; va < 256; va++ {
		la := srgbLinear[va] * (1 - alpha)
		for vb := 0; vb < 256; vb++ {
			mix[va][vb] = linearToSRGB(la + srgbLinear[vb]*alpha)
		}
	}

	dp, ap, bp := dst.Pix, a.Pix, b.Pix
	for i := 0; i < len(dp); i += 4 {
		dp[i] = mix[ap[i]][bp[i]]
		dp[i+1] = mix[ap[i+1]][bp[i+1]]
		dp[i+2] = mix[ap[i+2]][bp[i+2]]
		dp[i+3] = 0xFF
	}
}
