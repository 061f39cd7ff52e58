package colorspace

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// XYZ is a CIE 1931 XYZ color relative to D65 with Y = 1 for white.
type XYZ struct {
	X, Y, Z float64
}

// Lab is a CIE L*a*b* color relative to D65 with L in [0,100].
type Lab struct {
	L, A, B float64
}

// colorful works with L in [0,1] and a, b scaled to match; the pipeline
// uses the conventional CIE scale.
const labScale = 100

// RGBToXYZ converts an 8-bit sRGB triple to XYZ.
func RGBToXYZ(r, g, b uint8) XYZ {
	x, y, z := colorful.LinearRgbToXyz(SRGBToLinear(r), SRGBToLinear(g), SRGBToLinear(b))
	return XYZ{X: x, Y: y, Z: z}
}

// XYZToLab converts XYZ to CIE-LAB.
func XYZToLab(c XYZ) Lab {
	l, a, b := colorful.XyzToLab(c.X, c.Y, c.Z)
	return Lab{L: l * labScale, A: a * labScale, B: b * labScale}
}

// LabToXYZ converts CIE-LAB to XYZ.
func LabToXYZ(c Lab) XYZ {
	x, y, z := colorful.LabToXyz(c.L/labScale, c.A/labScale, c.B/labScale)
	return XYZ{X: x, Y: y, Z: z}
}

// XYZToRGB converts XYZ to sRGB on the 0..255 scale without clamping.
func XYZToRGB(c XYZ) (r, g, b float64) {
	col := colorful.Xyz(c.X, c.Y, c.Z)
	return col.R * 255, col.G * 255, col.B * 255
}

// XYZToRGB8 converts XYZ to the nearest 8-bit sRGB triple, clipping out of
// gamut channels.
func XYZToRGB8(c XYZ) (r, g, b uint8) {
	return colorful.Xyz(c.X, c.Y, c.Z).Clamped().RGB255()
}

// RGBToLab converts an 8-bit sRGB triple to CIE-LAB.
func RGBToLab(r, g, b uint8) Lab {
	return XYZToLab(RGBToXYZ(r, g, b))
}

// LabToRGB8 converts CIE-LAB to the nearest 8-bit sRGB triple.
func LabToRGB8(c Lab) (r, g, b uint8) {
	return XYZToRGB8(LabToXYZ(c))
}

// ClampLabToSRGB maps c into the sRGB gamut by reducing LCh chroma at
// fixed L and hue, the same way ClampOKLChToSRGB does in OKLCh. L is
// clamped to [0,100] first, so L = 0 and L = 100 always end at black and
// white.
func ClampLabToSRGB(c Lab) Lab {
	c.L = math.Max(0, math.Min(c.L, labScale))
	if math.IsNaN(c.A) || math.IsNaN(c.B) {
		c.A, c.B = 0, 0
	}
	for n := 0; n < clampIterations; n++ {
		if InGamut(XYZToRGB(LabToXYZ(c))) {
			return c
		}
		c.A *= 0.9
		c.B *= 0.9
	}
	if InGamut(XYZToRGB(LabToXYZ(c))) {
		return c
	}
	c.A, c.B = 0, 0
	return c
}

// GrayFromL returns the 8-bit sRGB code of the neutral gray with CIE
// lightness l. The result is exact gray (r = g = b), which a round trip
// through the XYZ matrices does not guarantee.
func GrayFromL(l float64) uint8 {
	l = math.Max(0, math.Min(l, labScale))
	fy := (l + 16) / 116
	var y float64
	if fy > 6.0/29.0 {
		y = fy * fy * fy
	} else {
		y = 3 * (6.0 / 29.0) * (6.0 / 29.0) * (fy - 4.0/29.0)
	}
	return LinearToSRGB8(y)
}

// Chroma returns the LCh chroma of c.
func (c Lab) Chroma() float64 {
	return math.Hypot(c.A, c.B)
}

// Hue returns the LCh hue angle of c in degrees [0,360).
func (c Lab) Hue() float64 {
	return NormalizeHue(math.Atan2(c.B, c.A) * 180 / math.Pi)
}
