// Package preprocess normalizes a fabric photograph before recoloring:
// gray-world white balance, a damped exposure correction that moves the
// diffuse (non-highlight) lightness toward a target, and the highlight and
// diffuse masks the recolor engines reuse.
package preprocess

import (
	"math"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/mask"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// Options controls Normalize. Out-of-range values are clamped by
// Normalized before use.
type Options struct {
	// TargetLightness is the OKLab L the diffuse median is moved toward.
	// Range [0.05,0.95], default 0.60.
	TargetLightness float64 `json:"target_lightness"`
	// HighlightPercentile is the luminance percentile above which pixels are
	// treated as highlights. Range [0.5,0.999], default 0.985.
	HighlightPercentile float64 `json:"highlight_percentile"`
	// GrayChroma is the OKLCh chroma below which a pixel counts as a
	// gray-point sample. Range [0.001,0.2], default 0.03.
	GrayChroma float64 `json:"gray_chroma"`
	// Rounds is the number of exposure updates. Range [0,8], default 2.
	Rounds int `json:"rounds"`
	// SoftRadius is the box blur radius of the emitted soft highlight mask.
	// Range [0,32], default 2.
	SoftRadius int `json:"soft_radius"`
}

// DefaultOptions returns the options used when the caller supplies none.
func DefaultOptions() Options {
	return Options{
		TargetLightness:     0.60,
		HighlightPercentile: 0.985,
		GrayChroma:          0.03,
		Rounds:              2,
		SoftRadius:          2,
	}
}

// Normalized returns a copy of o with every field clamped to its range.
func (o Options) Normalized() Options {
	o.TargetLightness = stats.Clamp(o.TargetLightness, 0.05, 0.95)
	o.HighlightPercentile = stats.Clamp(o.HighlightPercentile, 0.5, 0.999)
	o.GrayChroma = stats.Clamp(o.GrayChroma, 0.001, 0.2)
	o.Rounds = min(max(o.Rounds, 0), 8)
	o.SoftRadius = min(max(o.SoftRadius, 0), 32)
	return o
}

// Result is the normalized image plus everything estimated on the way.
type Result struct {
	Image *raster.Image `json:"-"`
	// WBGains are the per-channel linear gains, normalized so their BT.709
	// luminance is 1.
	WBGains [3]float64 `json:"wb_gains"`
	// ExposureGain is the multiplicative exposure scalar applied after
	// white balance.
	ExposureGain float64 `json:"exposure_gain"`
	// GraySamples is the number of pixels the white balance was estimated
	// from. Zero means the gains fell back to 1.
	GraySamples int `json:"gray_samples"`
	// DiffuseMedianL is the diffuse median OKLab L after the last round.
	DiffuseMedianL float64 `json:"diffuse_median_l"`

	Highlight     *mask.Binary `json:"-"`
	SoftHighlight *mask.Soft   `json:"-"`
	Diffuse       *mask.Binary `json:"-"`
}

// Normalize white-balances and exposes img and builds its masks. The masks
// in the result describe the returned image, not the input.
func Normalize(img *raster.Image, opts Options) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	opts = opts.Normalized()

	lin := linearize(img)
	gains, samples := whiteBalanceGains(img, lin, opts.GrayChroma)
	for i := 0; i < img.Len(); i++ {
		lin[i*3] *= gains[0]
		lin[i*3+1] *= gains[1]
		lin[i*3+2] *= gains[2]
	}
	balanced := encode(img, lin, 1)

	highlight, err := mask.BuildHighlight(balanced, opts.HighlightPercentile)
	if err != nil {
		return nil, err
	}
	diffuse, err := diffuseMask(balanced, highlight, opts.HighlightPercentile)
	if err != nil {
		return nil, err
	}
	gain, median := exposure(lin, diffuse, opts)

	res := &Result{
		Image:          encode(img, lin, gain),
		WBGains:        gains,
		ExposureGain:   gain,
		GraySamples:    samples,
		DiffuseMedianL: median,
	}
	if res.Highlight, err = mask.BuildHighlight(res.Image, opts.HighlightPercentile); err != nil {
		return nil, err
	}
	if res.Diffuse, err = diffuseMask(res.Image, res.Highlight, opts.HighlightPercentile); err != nil {
		return nil, err
	}
	if res.SoftHighlight, err = mask.Soften(res.Highlight, opts.SoftRadius); err != nil {
		return nil, err
	}
	return res, nil
}

// linearize decodes every pixel to linear light, three floats per pixel.
func linearize(img *raster.Image) []float64 {
	lin := make([]float64, img.Len()*3)
	raster.Rows(img.Height, func(start, end int) {
		for i := start * img.Width; i < end*img.Width; i++ {
			r, g, b, _ := img.RGBA(i)
			lin[i*3] = colorspace.SRGBToLinear(r)
			lin[i*3+1] = colorspace.SRGBToLinear(g)
			lin[i*3+2] = colorspace.SRGBToLinear(b)
		}
	})
	return lin
}

// encode scales the linear buffer by gain and writes it back as 8-bit sRGB,
// keeping the alpha of src.
func encode(src *raster.Image, lin []float64, gain float64) *raster.Image {
	out := raster.New(src.Width, src.Height)
	raster.Rows(src.Height, func(start, end int) {
		for i := start * src.Width; i < end*src.Width; i++ {
			_, _, _, a := src.RGBA(i)
			out.SetRGBA(i,
				colorspace.LinearToSRGB8(stats.Clamp01(lin[i*3]*gain)),
				colorspace.LinearToSRGB8(stats.Clamp01(lin[i*3+1]*gain)),
				colorspace.LinearToSRGB8(stats.Clamp01(lin[i*3+2]*gain)),
				a)
		}
	})
	return out
}

type channelSums struct {
	r, g, b float64
	n       int
}

// whiteBalanceGains estimates gray-world gains from near-neutral pixels,
// skipping transparent pixels and the brightest 1% by luminance. With no
// samples it returns unit gains.
func whiteBalanceGains(img *raster.Image, lin []float64, grayChroma float64) ([3]float64, int) {
	unit := [3]float64{1, 1, 1}

	lum := make([]float64, 0, img.Len())
	for i := 0; i < img.Len(); i++ {
		if img.Pix[i*4+3] == 0 {
			continue
		}
		lum = append(lum, colorspace.Luminance709(lin[i*3], lin[i*3+1], lin[i*3+2]))
	}
	if len(lum) == 0 {
		return unit, 0
	}
	ceiling := stats.Percentile(stats.Sorted(lum), 0.99)

	rows := raster.RowSums(img.Height, func(y int, acc *channelSums) {
		for i := y * img.Width; i < (y+1)*img.Width; i++ {
			if img.Pix[i*4+3] == 0 {
				continue
			}
			r, g, b := lin[i*3], lin[i*3+1], lin[i*3+2]
			if colorspace.Luminance709(r, g, b) > ceiling {
				continue
			}
			if colorspace.LinearToOKLab(r, g, b).LCh().C >= grayChroma {
				continue
			}
			acc.r += r
			acc.g += g
			acc.b += b
			acc.n++
		}
	})
	var total channelSums
	for _, row := range rows {
		total.r += row.r
		total.g += row.g
		total.b += row.b
		total.n += row.n
	}
	if total.n == 0 || total.r <= 0 || total.g <= 0 || total.b <= 0 {
		return unit, 0
	}

	n := float64(total.n)
	means := [3]float64{total.r / n, total.g / n, total.b / n}
	avg := (means[0] + means[1] + means[2]) / 3
	gains := [3]float64{avg / means[0], avg / means[1], avg / means[2]}
	norm := colorspace.Luminance709(gains[0], gains[1], gains[2])
	for c := range gains {
		gains[c] /= norm
	}
	return gains, total.n
}

// diffuseMask marks non-transparent pixels whose luminance lies between the
// 5th percentile and the highlight threshold and that are not highlights.
func diffuseMask(img *raster.Image, highlight *mask.Binary, percentile float64) (*mask.Binary, error) {
	if err := mask.CheckSize(highlight, img.Width, img.Height); err != nil {
		return nil, err
	}
	lum := mask.Luminance(img)
	sorted := stats.Sorted(lum)
	lo := stats.Percentile(sorted, 0.05)
	hi := stats.Percentile(sorted, percentile)
	m := mask.NewBinary(img.Width, img.Height)
	for i, v := range lum {
		if img.Pix[i*4+3] == 0 || highlight.Pix[i] != 0 {
			continue
		}
		if v >= lo && v < hi {
			m.Pix[i] = mask.On
		}
	}
	return m, nil
}

// exposure runs the damped update s *= clamp((target/median)^1.2, 0.7, 1.3)
// for the configured number of rounds and returns s with the last measured
// median. An empty diffuse mask leaves s at 1.
func exposure(lin []float64, diffuse *mask.Binary, opts Options) (float64, float64) {
	idx := make([]int, 0, diffuse.Count())
	for i, v := range diffuse.Pix {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return 1, 0
	}

	s := 1.0
	median := diffuseMedian(lin, idx, s)
	for r := 0; r < opts.Rounds; r++ {
		if median <= 0 {
			break
		}
		ratio := opts.TargetLightness / median
		s *= stats.Clamp(math.Pow(ratio, 1.2), 0.7, 1.3)
		median = diffuseMedian(lin, idx, s)
	}
	return s, median
}

func diffuseMedian(lin []float64, idx []int, s float64) float64 {
	ls := make([]float64, len(idx))
	for k, i := range idx {
		ls[k] = colorspace.LinearToOKLab(
			stats.Clamp01(lin[i*3]*s),
			stats.Clamp01(lin[i*3+1]*s),
			stats.Clamp01(lin[i*3+2]*s),
		).L
	}
	return stats.Median(stats.Sorted(ls))
}
