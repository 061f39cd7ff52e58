package recolor

import (
	"math"

	"github.com/ironsheep/fabric-tint-mcp/internal/adjust"
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/mask"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

const (
	// shadingFloor keeps the albedo division finite on black pixels.
	shadingFloor = 1e-4
	// albedoKnee is where the albedo soft clamp starts bending toward
	// albedoMax.
	albedoKnee = 2.0
	albedoMax  = 3.0
)

// softClampAlbedo is the identity up to albedoKnee and approaches
// albedoMax smoothly above it. Negative values map to 0.
func softClampAlbedo(v float64) float64 {
	switch {
	case !(v > 0):
		return 0
	case v <= albedoKnee:
		return v
	}
	return albedoMax - (albedoMax-albedoKnee)*math.Exp(-(v-albedoKnee)/(albedoMax-albedoKnee))
}

// albedo splits a linear triple into albedo and shading.
func albedo(r, g, b float64) (ar, ag, ab, shading float64) {
	shading = max(colorspace.Luminance709(r, g, b), shadingFloor)
	return softClampAlbedo(r / shading), softClampAlbedo(g / shading), softClampAlbedo(b / shading), shading
}

func intrinsics(src *raster.Image, target colorspace.TargetColor, p Params, weights mask.Weighter) *raster.Image {
	tr := colorspace.SRGBToLinear(target.RGB.R)
	tg := colorspace.SRGBToLinear(target.RGB.G)
	tb := colorspace.SRGBToLinear(target.RGB.B)
	tar, tag, tab, _ := albedo(tr, tg, tb)
	targetAlbedo := colorspace.LinearToOKLab(tar, tag, tab).LCh()

	out := raster.New(src.Width, src.Height)
	raster.Rows(src.Height, func(start, end int) {
		for i := start * src.Width; i < end*src.Width; i++ {
			r8, g8, b8, a := src.RGBA(i)
			lr, lg, lb := colorspace.SRGBToLinear(r8), colorspace.SRGBToLinear(g8), colorspace.SRGBToLinear(b8)
			r, g, b := intrinsicsPixel(lr, lg, lb, targetAlbedo, p, weights.Weight(i))
			out.SetRGBA(i, colorspace.LinearToSRGB8(r), colorspace.LinearToSRGB8(g), colorspace.LinearToSRGB8(b), a)
		}
	})
	return out
}

// intrinsicsPixel recolors one linear pixel and returns the linear result
// clamped to [0,1].
func intrinsicsPixel(lr, lg, lb float64, targetAlbedo colorspace.OKLCh, p Params, w float64) (float64, float64, float64) {
	ar, ag, ab, shading := albedo(lr, lg, lb)

	c := colorspace.LinearToOKLab(ar, ag, ab).LCh()
	c = colorspace.OKLCh{
		L: c.L,
		C: stats.Lerp(c.C, targetAlbedo.C, p.Strength),
		H: blendHue(c, targetAlbedo.H, p.HueStrength),
	}
	ar, ag, ab = colorspace.OKLabToLinear(c.Lab())
	r := stats.Clamp(ar, 0, albedoMax) * shading
	g := stats.Clamp(ag, 0, albedoMax) * shading
	b := stats.Clamp(ab, 0, albedoMax) * shading

	if w > 0 {
		if k := p.HighlightNeutralize * w; k > 0 {
			mean := (r + g + b) / 3
			r, g, b = stats.Lerp(r, mean, k), stats.Lerp(g, mean, k), stats.Lerp(b, mean, k)
		}
		if k := p.HighlightPreserve * w; k > 0 {
			r, g, b = stats.Lerp(r, lr, k), stats.Lerp(g, lg, k), stats.Lerp(b, lb, k)
		}
	}
	if p.Tonemap {
		r, g, b = adjust.ACESTonemapRGB(r, g, b)
	}
	return stats.Clamp01(r), stats.Clamp01(g), stats.Clamp01(b)
}
