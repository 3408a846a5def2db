package analyzer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

const (
	heatmapGridSize     = 3
	heatmapCells        = heatmapGridSize * heatmapGridSize
	heatmapBaseOpacity  = 0.6
	heatmapOverlayAlpha = 0.4
)

// gradientStop is a position in [0, 1] along the radius with a straight-alpha color
type gradientStop struct {
	pos     float64
	r, g, b float64
	damping float64
}

// red at the center through orange to yellow at the rim
var heatmapStops = []gradientStop{
	{pos: 0, r: 255, g: 0, b: 0, damping: 1.0},
	{pos: 0.5, r: 255, g: 165, b: 0, damping: 0.7},
	{pos: 1, r: 255, g: 255, b: 0, damping: 0.3},
}

var errEmptyRaster = errors.New("heatmap: empty raster")

// heatmapRenderer implements HeatmapRenderer. The overlay is cosmetic and
// independent from the classifier: it only reads the focus-area intensities.
type heatmapRenderer struct{}

// NewHeatmapRenderer creates the 3x3 grid overlay renderer
func NewHeatmapRenderer() HeatmapRenderer {
	return &heatmapRenderer{}
}

// Render composes the source at 60% opacity with one radial gradient per
// focus area. Entry i lands in grid cell (i mod 3, i div 3); entries past
// the ninth have no cell and are skipped.
func (hr *heatmapRenderer) Render(img image.Image, focusAreas []float64) (*image.NRGBA, error) {
	if img == nil {
		return nil, errEmptyRaster
	}
	src := img.Bounds()
	width, height := src.Dx(), src.Dy()
	if width <= 0 || height <= 0 {
		return nil, errEmptyRaster
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.DrawMask(out, out.Bounds(), img, src.Min, uniformAlpha(heatmapBaseOpacity), image.Point{}, xdraw.Over)

	overlayMask := uniformAlpha(heatmapOverlayAlpha)
	for i, intensity := range focusAreas {
		if i >= heatmapCells {
			break
		}
		col, row := i%heatmapGridSize, i/heatmapGridSize
		cell := image.Rect(
			col*width/heatmapGridSize, row*height/heatmapGridSize,
			(col+1)*width/heatmapGridSize, (row+1)*height/heatmapGridSize,
		)
		if cell.Empty() {
			continue
		}
		xdraw.DrawMask(out, cell, radialGradient(cell, intensity), cell.Min, overlayMask, image.Point{}, xdraw.Over)
	}

	return out, nil
}

// radialGradient fills cell with a gradient centered in the cell. Pixels past
// the radius take the outer stop, like a canvas fillRect over a radial gradient.
func radialGradient(cell image.Rectangle, intensity float64) *image.NRGBA {
	grad := image.NewNRGBA(cell)
	alpha := math.Max(0, math.Min(1, intensity/100))

	cx := float64(cell.Min.X+cell.Max.X) / 2
	cy := float64(cell.Min.Y+cell.Max.Y) / 2
	radius := math.Min(float64(cell.Dx()), float64(cell.Dy())) / 2
	if radius <= 0 {
		radius = 1
	}

	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		for x := cell.Min.X; x < cell.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			grad.SetNRGBA(x, y, gradientColor(math.Min(1, d/radius), alpha))
		}
	}
	return grad
}

func gradientColor(t, alpha float64) color.NRGBA {
	lo, hi := heatmapStops[0], heatmapStops[len(heatmapStops)-1]
	for i := 1; i < len(heatmapStops); i++ {
		if t <= heatmapStops[i].pos {
			lo, hi = heatmapStops[i-1], heatmapStops[i]
			break
		}
	}

	f := 0.0
	if span := hi.pos - lo.pos; span > 0 {
		f = (t - lo.pos) / span
	}
	lerp := func(a, b float64) float64 { return a + (b-a)*f }

	return color.NRGBA{
		R: clampByte(lerp(lo.r, hi.r)),
		G: clampByte(lerp(lo.g, hi.g)),
		B: clampByte(lerp(lo.b, hi.b)),
		A: clampByte(255 * alpha * lerp(lo.damping, hi.damping)),
	}
}

func uniformAlpha(opacity float64) *image.Uniform {
	return image.NewUniform(color.Alpha{A: clampByte(255 * opacity)})
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// EncodePNG encodes the overlay for transport
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
