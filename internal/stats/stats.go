// Package stats holds the order statistics shared by mask building,
// preprocessing and auto-tuning. Sorting and summing are order independent,
// so results do not depend on how the samples were gathered.
package stats

import (
	"math"
	"slices"
)

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	out := slices.Clone(vals)
	slices.Sort(out)
	return out
}

// Percentile returns the nearest-rank value at fraction p of an ascending
// slice: sorted[floor(p*(n-1))]. p is clamped to [0,1]. An empty slice
// yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if !(p > 0) {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	return sorted[int(math.Floor(p*float64(n-1)))]
}

// Median is Percentile(sorted, 0.5).
func Median(sorted []float64) float64 {
	return Percentile(sorted, 0.5)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	switch {
	case !(v >= lo):
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Clamp01 is Clamp(v, 0, 1).
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates linearly from a to b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Smoothstep is the cubic Hermite ramp from 0 at edge0 to 1 at edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// Bell is a smooth bump that peaks at 1 for x == center and falls to 0 at
// center ± halfWidth.
func Bell(x, center, halfWidth float64) float64 {
	d := math.Abs(x-center) / halfWidth
	if d >= 1 {
		return 0
	}
	return 1 - Smoothstep(0, 1, d)
}
