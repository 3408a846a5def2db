package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createNRGBAImage creates a straight-alpha test image filled with one color
func createNRGBAImage(width, height int, fill color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
	return img
}

func TestClassifySkinPixel(t *testing.T) {
	testCases := []struct {
		name    string
		r, g, b uint8
		want    float64
	}{
		{"Mid-tone skin passes HSV and RGB", 220, 170, 140, 0.9},
		{"Bright skin fails value range only", 245, 140, 110, 0.7},
		{"Dark skin-hued pixel matches hue and saturation only", 90, 60, 50, 0.5},
		{"Dim skin hue below value range", 80, 60, 50, 0.5},
		{"Pure blue", 0, 0, 255, 0},
		{"Neutral gray", 128, 128, 128, 0},
		{"Pure white", 255, 255, 255, 0},
		{"Black", 0, 0, 0, 0},
		{"Green dominant", 100, 200, 80, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifySkinPixel(tc.r, tc.g, tc.b)
			if got != tc.want {
				t.Errorf("ClassifySkinPixel(%d,%d,%d) = %v, want %v", tc.r, tc.g, tc.b, got, tc.want)
			}
		})
	}
}

func TestRgbToHSV(t *testing.T) {
	testCases := []struct {
		name    string
		r, g, b float64
		h, s, v float64
	}{
		{"Pure Red", 255, 0, 0, 0, 1, 1},
		{"Pure Green", 0, 255, 0, 120, 1, 1},
		{"Pure Blue", 0, 0, 255, 240, 1, 1},
		{"Magenta-ish red wraps near 360", 255, 0, 40, 350.588, 1, 1},
		{"Gray", 128, 128, 128, 0, 0, 0.502},
		{"Skin", 220, 170, 140, 22.5, 0.364, 0.863},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tc.r, tc.g, tc.b)
			if math.Abs(h-tc.h) > 0.01 {
				t.Errorf("Expected H ~%f, got %f", tc.h, h)
			}
			if math.Abs(s-tc.s) > 0.001 {
				t.Errorf("Expected S ~%f, got %f", tc.s, s)
			}
			if math.Abs(v-tc.v) > 0.001 {
				t.Errorf("Expected V ~%f, got %f", tc.v, v)
			}
		})
	}
}

func TestSkinSampler_UniformSkin(t *testing.T) {
	sampler := NewSkinSampler()
	img := createNRGBAImage(10, 10, color.NRGBA{245, 140, 110, 255})

	acc := sampler.Sample(img, 4)

	if acc.sampled != 25 {
		t.Errorf("Expected 25 sampled pixels with stride 4 over 100 pixels, got %d", acc.sampled)
	}
	if acc.skinCount != 25 {
		t.Errorf("Expected every sample to be skin, got %d", acc.skinCount)
	}
	if acc.sumR != 245*25 {
		t.Errorf("Expected sumR %d, got %f", 245*25, acc.sumR)
	}
	wantBrightness := (245.0 + 140.0 + 110.0) / 3 * 25
	if math.Abs(acc.sumBrightness-wantBrightness) > 1e-9 {
		t.Errorf("Expected sumBrightness %f, got %f", wantBrightness, acc.sumBrightness)
	}
}

func TestSkinSampler_TransparentPixelsSkipped(t *testing.T) {
	sampler := NewSkinSampler()

	acc := sampler.Sample(createNRGBAImage(8, 8, color.NRGBA{245, 140, 110, 127}), 1)
	if acc.skinCount != 0 {
		t.Errorf("Expected alpha 127 to be skipped, got %d skin pixels", acc.skinCount)
	}
	if acc.sampled != 64 {
		t.Errorf("Expected 64 sampled pixels, got %d", acc.sampled)
	}

	acc = sampler.Sample(createNRGBAImage(8, 8, color.NRGBA{245, 140, 110, 128}), 1)
	if acc.skinCount != 64 {
		t.Errorf("Expected alpha 128 to be accepted, got %d skin pixels", acc.skinCount)
	}
}

func TestSkinSampler_HueSaturationOnlyExcluded(t *testing.T) {
	sampler := NewSkinSampler()
	img := createNRGBAImage(6, 6, color.NRGBA{90, 60, 50, 255})

	acc := sampler.Sample(img, 1)

	if acc.skinCount != 0 {
		t.Errorf("Expected 0.5-scored pixels to stay out of the averages, got %d", acc.skinCount)
	}
}

func TestSkinSampler_StrideWalksRowMajorBuffer(t *testing.T) {
	sampler := NewSkinSampler()
	img := createNRGBAImage(3, 3, color.NRGBA{0, 0, 255, 255})
	// Pixel index 4 is (1,1); index 8 is (2,2)
	img.SetNRGBA(1, 1, color.NRGBA{220, 170, 140, 255})
	img.SetNRGBA(2, 2, color.NRGBA{220, 170, 140, 255})
	// Index 5 is never visited with stride 4
	img.SetNRGBA(2, 1, color.NRGBA{220, 170, 140, 255})

	acc := sampler.Sample(img, 4)

	if acc.sampled != 3 {
		t.Errorf("Expected samples at indices 0, 4, 8, got %d samples", acc.sampled)
	}
	if acc.skinCount != 2 {
		t.Errorf("Expected 2 skin samples, got %d", acc.skinCount)
	}
}

func TestSkinSampler_OffsetBoundsAndGenericImage(t *testing.T) {
	sampler := NewSkinSampler()
	img := image.NewRGBA(image.Rect(10, 20, 14, 24))
	for y := 20; y < 24; y++ {
		for x := 10; x < 14; x++ {
			img.Set(x, y, color.RGBA{220, 170, 140, 255})
		}
	}

	acc := sampler.Sample(img, 1)

	if acc.skinCount != 16 {
		t.Errorf("Expected 16 skin pixels, got %d", acc.skinCount)
	}
}

func TestSkinSampler_EmptyInputs(t *testing.T) {
	sampler := NewSkinSampler()

	if acc := sampler.Sample(nil, 4); !acc.empty() {
		t.Error("Expected nil image to produce an empty accumulator")
	}
	if acc := sampler.Sample(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 4); !acc.empty() || acc.sampled != 0 {
		t.Error("Expected zero-size image to produce an empty accumulator")
	}
	// Invalid stride falls back to the default
	acc := sampler.Sample(createNRGBAImage(4, 4, color.NRGBA{220, 170, 140, 255}), 0)
	if acc.sampled != 4 {
		t.Errorf("Expected default stride to sample 4 of 16 pixels, got %d", acc.sampled)
	}
}
