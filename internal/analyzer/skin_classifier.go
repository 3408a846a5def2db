package analyzer

import (
	"image"
	"image/color"
	"math"
)

const (
	// minOpaqueAlpha is the lowest alpha treated as a valid sample
	minOpaqueAlpha = 128

	// skinScoreThreshold is exclusive: the 0.5 hue/saturation-only tier is
	// a classification result but never enters the averages.
	skinScoreThreshold = 0.6

	scoreHSVAndRGB  = 0.9
	scoreRGBOnly    = 0.7
	scoreHueSatOnly = 0.5
)

// skinSampler implements SkinSampler
type skinSampler struct{}

// NewSkinSampler creates a new strided skin sampler
func NewSkinSampler() SkinSampler {
	return &skinSampler{}
}

// Sample walks the row-major pixel buffer every stride pixels and
// accumulates the channels of samples scoring above the skin threshold.
func (s *skinSampler) Sample(img image.Image, stride int) skinAccumulator {
	var acc skinAccumulator
	if img == nil {
		return acc
	}
	if stride < 1 {
		stride = DefaultSampleStride
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	total := width * height
	if total <= 0 {
		return acc
	}

	nrgba, isNRGBA := img.(*image.NRGBA)

	for i := 0; i < total; i += stride {
		x := bounds.Min.X + i%width
		y := bounds.Min.Y + i/width

		var px color.NRGBA
		if isNRGBA {
			px = nrgba.NRGBAAt(x, y)
		} else {
			px = color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		}
		acc.sampled++

		if px.A < minOpaqueAlpha {
			continue
		}

		if ClassifySkinPixel(px.R, px.G, px.B) > skinScoreThreshold {
			acc.add(float64(px.R), float64(px.G), float64(px.B))
		}
	}

	return acc
}

// ClassifySkinPixel scores how skin-like an 8-bit RGB color is.
// Returns 0.9 when both the HSV ranges and the RGB rule hold, 0.7 for the
// RGB rule alone, 0.5 when only hue and saturation fall in range, else 0.
func ClassifySkinPixel(r, g, b uint8) float64 {
	h, s, v := rgbToHSV(float64(r), float64(g), float64(b))

	hueOK := (h >= 0 && h <= 25) || (h >= 340 && h <= 360)
	satOK := s >= 0.15 && s <= 0.68
	valOK := v >= 0.35 && v <= 0.95
	rgbOK := rgbSkinRule(int(r), int(g), int(b))

	switch {
	case hueOK && satOK && valOK && rgbOK:
		return scoreHSVAndRGB
	case rgbOK:
		return scoreRGBOnly
	case hueOK && satOK:
		return scoreHueSatOnly
	default:
		return 0
	}
}

// rgbSkinRule is the classic uniform-daylight RGB skin heuristic
func rgbSkinRule(r, g, b int) bool {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	return r > 95 && g > 40 && b > 20 &&
		maxC-minC > 15 &&
		absInt(r-g) > 15 &&
		r > g && r > b
}

// rgbToHSV converts 0-255 channels to hue in degrees [0, 360), saturation and value in [0, 1]
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255
	g /= 255
	b /= 255

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}

	switch {
	case delta == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/delta, 6)
	case maxC == g:
		h = 60 * ((b-r)/delta + 2)
	default:
		h = 60 * ((r-g)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	return h, s, v
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
