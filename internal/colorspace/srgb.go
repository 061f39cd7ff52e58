// Package colorspace implements the color conversions used by the recolor
// pipeline: sRGB <-> linear light <-> OKLab <-> OKLCh for the perceptual
// recolor math, and sRGB <-> CIE-XYZ <-> CIE-LAB (D65) for the lightness
// operations exposed to the UI.
//
// The two perceptual spaces are not numerically interchangeable. An
// algorithm works in exactly one of them.
//
// All functions are pure and safe for concurrent use.
package colorspace

import (
	"math"
)

// decodeTable maps every 8-bit sRGB code to linear light.
var decodeTable = func() (t [256]float64) {
	for i := range t {
		t[i] = Decode(float64(i) / 255)
	}
	return
}()

// SRGBToLinear converts an 8-bit sRGB code value to linear light in [0,1].
func SRGBToLinear(v uint8) float64 {
	return decodeTable[v]
}

// Decode applies the inverse sRGB transfer function to an encoded value in
// [0,1].
func Decode(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the sRGB transfer function, returning an encoded
// value on the [0,1] scale. Inputs outside [0,1] are not clamped.
func LinearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// LinearToSRGB8 encodes linear light to the nearest 8-bit sRGB code,
// clipping to [0,255].
func LinearToSRGB8(v float64) uint8 {
	return To8(LinearToSRGB(v) * 255)
}

// To8 rounds a value on the 0..255 scale to the nearest code, clipping out
// of range values and mapping NaN to 0.
func To8(v float64) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// Luminance709 returns the BT.709 weighted sum of three channels.
func Luminance709(r, g, b float64) float64 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}
