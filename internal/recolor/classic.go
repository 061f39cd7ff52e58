package recolor

import (
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/mask"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// Chroma shaping constants of the classic engine. L values are OKLab.
const (
	shadowKnee       = 0.25
	shadowFloor      = 0.85
	midtoneCenter    = 0.5
	midtoneWidth     = 0.3
	midtoneGain      = 0.35
	densityCenter    = 0.65
	densityWidth     = 0.2
	densityGain      = 0.3
	softCapLimit     = 0.25
	softCapKeep      = 0.3
	neutralizeDepth  = 0.9
	toneMatchGain    = 0.6
	toneRampLow      = 0.05
	toneRampHigh     = 0.15
	tonePeak         = 0.7
	toneWidth        = 0.45
	toneHighlightCut = 0.8
	deepDarkGain     = 0.7
)

func classic(src *raster.Image, target colorspace.TargetColor, p Params, weights mask.Weighter) *raster.Image {
	out := raster.New(src.Width, src.Height)
	raster.Rows(src.Height, func(start, end int) {
		for i := start * src.Width; i < end*src.Width; i++ {
			r, g, b, a := src.RGBA(i)
			c := classicPixel(colorspace.RGBToOKLab(r, g, b).LCh(), target.OKLCh, p, weights.Weight(i))
			r, g, b = colorspace.OKLabToRGB8(colorspace.ClampOKLChToSRGB(c).Lab())
			out.SetRGBA(i, r, g, b, a)
		}
	})
	return out
}

// classicPixel recolors one OKLCh value. w is the highlight weight of the
// pixel in [0,1].
func classicPixel(c, t colorspace.OKLCh, p Params, w float64) colorspace.OKLCh {
	l := c.L

	desired := stats.Lerp(c.C, t.C, p.Strength)
	if l < shadowKnee {
		ramp := l / shadowKnee
		// Blends the flat 0.85 factor toward 1 at the knee so chroma has no step there.
		desired *= ramp * (shadowFloor + (1-shadowFloor)*ramp)
	}
	desired *= 1 + midtoneGain*p.MidtoneBoost*stats.Bell(l, midtoneCenter, midtoneWidth)
	desired *= 1 + densityGain*p.ColorDensity*stats.Bell(l, densityCenter, densityWidth)
	if limit := max(softCapLimit, t.C); desired > limit {
		desired = limit + (desired-limit)*softCapKeep
	}

	chroma := stats.Lerp(desired, c.C, p.HighlightBlend*w)
	chroma *= 1 - neutralizeDepth*p.HighlightNeutralize*w
	hue := blendHue(c, t.H, p.HueStrength*(1-p.HighlightHueBlend*w))

	if p.ToneMatch > 0 {
		pull := toneMatchGain * p.ToneMatch *
			stats.Smoothstep(toneRampLow, toneRampHigh, l) *
			(0.5 + 0.5*stats.Bell(l, tonePeak, toneWidth)) *
			(1 - toneHighlightCut*w)
		l = stats.Lerp(l, t.L, pull)
	}
	if p.DeepDark > 0 && t.L < l {
		// Full darkening outside highlights, HighlightDarken of it inside.
		atten := (1 - w) + w*p.HighlightDarken
		l -= (l - t.L) * deepDarkGain * p.DeepDark * atten
	}

	return colorspace.OKLCh{L: stats.Clamp01(l), C: max(chroma, 0), H: hue}
}
