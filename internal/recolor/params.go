package recolor

import (
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// Params holds every knob of the recolor engines. Fields outside their
// documented range are clamped by Clamped; NaN maps to the lower bound.
// Engines never read a Params value that has not been clamped.
type Params struct {
	// Strength blends chroma from the source toward the target. [0,1], 0.9.
	Strength float64 `json:"strength"`
	// HueStrength is the fraction of the hue rotation applied. [0,1], 0.9.
	HueStrength float64 `json:"hue_strength"`
	// MidtoneBoost raises chroma around OKLab L 0.5. [0,1], 0.2.
	MidtoneBoost float64 `json:"midtone_boost"`
	// ColorDensity raises chroma in the high midtones around L 0.65. [0,1], 0.
	ColorDensity float64 `json:"color_density"`
	// ToneMatch pulls lightness toward the target lightness. [0,1], 0.
	ToneMatch float64 `json:"tone_match"`
	// DeepDark further darkens pixels lighter than a darker target. [0,1], 0.
	DeepDark float64 `json:"deep_dark"`
	// HighlightDarken is how much of DeepDark applies inside highlights.
	// [0,1], 0 (highlights exempt).
	HighlightDarken float64 `json:"highlight_darken"`
	// HighlightBlend reverts chroma toward the source inside highlights.
	// [0,1], 0.5.
	HighlightBlend float64 `json:"highlight_blend"`
	// HighlightHueBlend reverts the hue rotation inside highlights. [0,1], 0.3.
	HighlightHueBlend float64 `json:"highlight_hue_blend"`
	// HighlightNeutralize drains chroma inside highlights. [0,1], 0.
	HighlightNeutralize float64 `json:"highlight_neutralize"`
	// HighlightPreserve blends highlights back toward the original linear
	// pixel (intrinsics engine). [0,1], 0.6.
	HighlightPreserve float64 `json:"highlight_preserve"`
	// HighlightPercentile is the luminance percentile used when the engine
	// builds its own highlight mask. [0.5,0.999], 0.97.
	HighlightPercentile float64 `json:"highlight_percentile"`
	// SoftRadius is the blur radius of a self-built soft mask. [0,32], 3.
	SoftRadius int `json:"soft_radius"`
	// UseSoftMask weights highlights by the blurred mask instead of the
	// binary one. Default true.
	UseSoftMask bool `json:"use_soft_mask"`
	// Tonemap applies the ACES filmic curve before encoding (intrinsics
	// engine). Default false.
	Tonemap bool `json:"tonemap"`
}

// DefaultParams returns the parameters used by the interactive preview
// before the user touches any slider.
func DefaultParams() Params {
	return Params{
		Strength:            0.9,
		HueStrength:         0.9,
		MidtoneBoost:        0.2,
		HighlightBlend:      0.5,
		HighlightHueBlend:   0.3,
		HighlightPreserve:   0.6,
		HighlightPercentile: 0.97,
		SoftRadius:          3,
		UseSoftMask:         true,
	}
}

// Clamped returns a copy of p with every field inside its range.
func (p Params) Clamped() Params {
	for _, f := range []*float64{
		&p.Strength, &p.HueStrength, &p.MidtoneBoost, &p.ColorDensity,
		&p.ToneMatch, &p.DeepDark, &p.HighlightDarken, &p.HighlightBlend,
		&p.HighlightHueBlend, &p.HighlightNeutralize, &p.HighlightPreserve,
	} {
		*f = stats.Clamp01(*f)
	}
	p.HighlightPercentile = stats.Clamp(p.HighlightPercentile, 0.5, 0.999)
	p.SoftRadius = min(max(p.SoftRadius, 0), 32)
	return p
}
