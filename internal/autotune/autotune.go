// Package autotune derives recolor parameters from the source fabric and
// the target color, so a user can get a reasonable result in one click.
//
// The heuristic is pure and deterministic: the substrate is sampled on a
// fixed stride, never at random, and there is no iteration.
package autotune

import (
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/recolor"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// DefaultMaxSamples bounds the substrate sample on large images.
const DefaultMaxSamples = 12000

// Glossy classification thresholds.
const (
	glossyCoverage = 0.04
	glossySpread   = 0.35
)

// Metrics describes the lightness and chroma distribution of a substrate
// in OKLab terms.
type Metrics struct {
	MedianL    float64 `json:"median_l"`
	P95L       float64 `json:"p95_l"`
	P5L        float64 `json:"p5_l"`
	MeanChroma float64 `json:"mean_chroma"`
	// HighlightCoverage is the fraction of samples at or above P95L.
	HighlightCoverage float64 `json:"highlight_coverage"`
	IsGlossy          bool    `json:"is_glossy"`
	Samples           int     `json:"samples"`
	Stride            int     `json:"stride"`
}

// SampleSubstrate measures img on a stride of ceil(pixels/maxSamples),
// skipping fully transparent pixels. maxSamples <= 0 selects
// DefaultMaxSamples. An image with nothing to sample yields zero metrics.
func SampleSubstrate(img *raster.Image, maxSamples int) (*Metrics, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	n := img.Len()
	stride := max(1, (n+maxSamples-1)/maxSamples)

	ls := make([]float64, 0, n/stride+1)
	var chroma float64
	for i := 0; i < n; i += stride {
		r, g, b, a := img.RGBA(i)
		if a == 0 {
			continue
		}
		c := colorspace.RGBToOKLab(r, g, b).LCh()
		ls = append(ls, c.L)
		chroma += c.C
	}

	m := &Metrics{Samples: len(ls), Stride: stride}
	if len(ls) == 0 {
		return m, nil
	}
	sorted := stats.Sorted(ls)
	m.MedianL = stats.Median(sorted)
	m.P95L = stats.Percentile(sorted, 0.95)
	m.P5L = stats.Percentile(sorted, 0.05)
	m.MeanChroma = chroma / float64(len(ls))

	above := 0
	for _, l := range sorted {
		if l >= m.P95L {
			above++
		}
	}
	m.HighlightCoverage = float64(above) / float64(len(sorted))
	m.IsGlossy = m.HighlightCoverage > glossyCoverage && m.P95L-m.P5L > glossySpread
	return m, nil
}

// AutoTune is Tune with the default sample budget.
func AutoTune(img *raster.Image, targetHex string) (recolor.Params, *Metrics, error) {
	return Tune(img, targetHex, DefaultMaxSamples)
}

// Tune samples img and derives recolor parameters for targetHex. The
// target is parsed first; a malformed color fails with an error wrapping
// colorspace.ErrInvalidColorFormat. Every returned field is clamped.
func Tune(img *raster.Image, targetHex string, maxSamples int) (recolor.Params, *Metrics, error) {
	target, err := colorspace.NewTargetColor(targetHex)
	if err != nil {
		return recolor.Params{}, nil, err
	}
	m, err := SampleSubstrate(img, maxSamples)
	if err != nil {
		return recolor.Params{}, nil, err
	}
	return derive(m, target.OKLCh), m, nil
}

func derive(m *Metrics, t colorspace.OKLCh) recolor.Params {
	p := recolor.DefaultParams()
	p.Strength = 0.9
	p.HueStrength = p.Strength

	chromaGap := t.C - m.MeanChroma
	p.MidtoneBoost = stats.Clamp01(chromaGap/0.15) * 0.6

	darkGap := m.MedianL - t.L
	p.ToneMatch = stats.Clamp01(darkGap / 0.4)
	p.DeepDark = stats.Clamp01((darkGap - 0.1) / 0.4)

	if m.IsGlossy && t.L >= 0.35 && t.L <= 0.75 {
		p.ColorDensity = 0.5 * stats.Clamp01(t.C/0.15)
	}

	darker := t.L < m.MedianL
	if m.IsGlossy {
		p.HighlightBlend = 0.7
		p.HighlightHueBlend = 0.5
		p.HighlightNeutralize = 0.1
		if darker {
			p.HighlightNeutralize = 0.3
		}
	} else {
		p.HighlightBlend = 0.4
		p.HighlightHueBlend = 0.25
		p.HighlightNeutralize = 0
	}
	if t.L > m.MedianL {
		p.HighlightBlend /= 2
	}
	return p.Clamped()
}
