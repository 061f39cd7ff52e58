package imaging

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// LabColor is a CIE-LAB value rounded for display.
type LabColor struct {
	L float64 `json:"l"` // Lightness: 0-100
	A float64 `json:"a"` // Green (-) to red (+)
	B float64 `json:"b"` // Blue (-) to yellow (+)
}

// OKLChColor is an OKLCh value rounded for display.
type OKLChColor struct {
	L float64 `json:"l"` // Lightness: 0-1
	C float64 `json:"c"` // Chroma: 0 for gray, about 0.32 at the sRGB limit
	H float64 `json:"h"` // Hue: 0-360 degrees
}

// ColorResult contains a color value in every representation the recolor
// pipeline and its UI use.
type ColorResult struct {
	Hex   string         `json:"hex"`   // Hex format "#RRGGBB" (no alpha)
	RGB   colorspace.RGB `json:"rgb"`   // RGB components
	RGBA  RGBAColor      `json:"rgba"`  // RGBA components with alpha
	HSL   HSLColor       `json:"hsl"`   // HSL representation
	Lab   LabColor       `json:"lab"`   // CIE-LAB (D65), as shown to users picking a target
	OKLCh OKLChColor     `json:"oklch"` // Perceptual polar form used by the recolor engines
}

// NewColorResult describes an 8-bit RGBA color.
func NewColorResult(r, g, b, a uint8) ColorResult {
	lab := colorspace.RGBToLab(r, g, b)
	lch := colorspace.RGBToOKLab(r, g, b).LCh()
	rgb := colorspace.RGB{R: r, G: g, B: b}
	return ColorResult{
		Hex:   rgb.Hex(),
		RGB:   rgb,
		RGBA:  RGBAColor{R: r, G: g, B: b, A: a},
		HSL:   rgbToHSL(r, g, b),
		Lab:   LabColor{L: round(lab.L, 2), A: round(lab.A, 2), B: round(lab.B, 2)},
		OKLCh: OKLChColor{L: round(lch.L, 4), C: round(lch.C, 4), H: round(lch.H, 2)},
	}
}

// SampleColor extracts the color at a pixel coordinate.
//
// Coordinates are 0-based with origin at top-left. Returns an error if
// (x, y) is outside the image.
func SampleColor(img *raster.Image, x, y int) (*ColorResult, error) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	r, g, b, a := img.RGBA(y*img.Width + x)
	c := NewColorResult(r, g, b, a)
	return &c, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive
// label such as "weft" or "sheen".
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// MultiColorResult contains color samples in input order.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"`
}

// SampleColorsMulti extracts colors at several coordinates. On error no
// partial result is returned.
func SampleColorsMulti(img *raster.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		color, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *color,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// ColorFrequency represents a quantized color and how much of the image it
// covers.
type ColorFrequency struct {
	Hex        string         `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64        `json:"percentage"` // Percentage of sampled pixels (0-100)
	RGB        colorspace.RGB `json:"rgb"`        // RGB components (quantized)
}

// DominantColorsResult contains the most frequent colors, most common first.
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// DominantColors returns the count most common colors of img, ignoring
// fully transparent pixels. Channels are quantized to multiples of 16 so
// the shades of one yarn group together. Ties are broken by hex value so
// the result is stable.
func DominantColors(img *raster.Image, count int) (*DominantColorsResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	counts := make(map[colorspace.RGB]int)
	total := 0
	for i := 0; i < img.Len(); i++ {
		r, g, b, a := img.RGBA(i)
		if a == 0 {
			continue
		}
		counts[colorspace.RGB{R: r / 16 * 16, G: g / 16 * 16, B: b / 16 * 16}]++
		total++
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for rgb, n := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        rgb.Hex(),
			Percentage: float64(n) / float64(total) * 100,
			RGB:        rgb,
		})
	}
	slices.SortFunc(colors, func(a, b ColorFrequency) int {
		if c := cmp.Compare(b.Percentage, a.Percentage); c != 0 {
			return c
		}
		return cmp.Compare(a.Hex, b.Hex)
	})

	if len(colors) > count {
		colors = colors[:count]
	}
	return &DominantColorsResult{Colors: colors}, nil
}

// rgbToHSL converts 8-bit RGB values to HSL with H in 0-360 and S, L in
// 0-100.
func rgbToHSL(r, g, b uint8) HSLColor {
	rf := float64(r) / 255.0
	gf := float64(g) / 255.0
	bf := float64(b) / 255.0

	hi := max(rf, gf, bf)
	lo := min(rf, gf, bf)
	l := (hi + lo) / 2.0

	if hi == lo {
		return HSLColor{H: 0, S: 0, L: int(l * 100)}
	}

	var s float64
	if l < 0.5 {
		s = (hi - lo) / (hi + lo)
	} else {
		s = (hi - lo) / (2.0 - hi - lo)
	}

	var h float64
	switch hi {
	case rf:
		h = (gf - bf) / (hi - lo)
		if gf < bf {
			h += 6
		}
	case gf:
		h = 2.0 + (bf-rf)/(hi-lo)
	case bf:
		h = 4.0 + (rf-gf)/(hi-lo)
	}
	h *= 60

	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
