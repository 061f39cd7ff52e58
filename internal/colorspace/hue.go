package colorspace

import (
	"math"
)

// NormalizeHue wraps an angle in degrees into [0,360).
func NormalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// HueDelta returns the signed shortest rotation from one hue to another,
// in degrees within [-180,180].
func HueDelta(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	switch {
	case d > 180:
		d -= 360
	case d < -180:
		d += 360
	}
	return d
}
