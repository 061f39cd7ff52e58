// Package recolor re-tints a fabric image toward a target color while
// keeping its texture, shading and specular highlights.
//
// Three interchangeable algorithms share one contract:
//
//   - Classic blends hue and chroma per pixel in OKLCh, shaping chroma by
//     lightness and backing off inside highlights.
//   - Intrinsics splits each pixel into albedo and shading, recolors only
//     the albedo and recomposes, which tracks the specular structure of
//     satin and other glossy weaves.
//   - LabTransfer moves the mean CIE-LAB color of the image onto the
//     target while keeping each pixel's lightness offset from the mean.
//
// All engines are pure: they allocate a new image and never modify the
// source or the masks.
package recolor

import (
	"fmt"
	"strings"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/mask"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// Algorithm selects a recolor engine.
type Algorithm int

const (
	Classic Algorithm = iota
	Intrinsics
	LabTransfer
)

var algorithmNames = map[Algorithm]string{
	Classic:     "classic",
	Intrinsics:  "intrinsics",
	LabTransfer: "lab_transfer",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm accepts an algorithm name case-insensitively. The empty
// string selects Classic.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "classic":
		return Classic, nil
	case "intrinsics", "intrinsics-lite", "intrinsics_lite":
		return Intrinsics, nil
	case "lab_transfer", "lab-transfer", "lab":
		return LabTransfer, nil
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", raster.ErrInvalidParameter, s)
}

// Masks are optional precomputed highlight masks, typically the ones
// emitted by the preprocessor. Missing masks are built from the source.
type Masks struct {
	Highlight *mask.Binary
	Soft      *mask.Soft
}

// Stats summarizes a recolor in OKLab terms over non-transparent pixels.
type Stats struct {
	MeanL            float64 `json:"mean_l"`
	MeanChromaBefore float64 `json:"mean_chroma_before"`
	MeanChromaAfter  float64 `json:"mean_chroma_after"`
	HighlightPixels  int     `json:"highlight_pixels"`
}

// Result is the recolored image with its statistics.
type Result struct {
	Image     *raster.Image          `json:"-"`
	Algorithm string                 `json:"algorithm"`
	Target    colorspace.TargetColor `json:"target"`
	Params    Params                 `json:"params"`
	Stats     Stats                  `json:"stats"`
}

// engine renders one algorithm. p is already clamped and weights has the
// dimensions of src.
type engine func(src *raster.Image, target colorspace.TargetColor, p Params, weights mask.Weighter) *raster.Image

var engines = map[Algorithm]engine{
	Classic:     classic,
	Intrinsics:  intrinsics,
	LabTransfer: labTransfer,
}

// Recolor re-tints img toward targetHex with the selected algorithm.
//
// The target is parsed before any pixel work, so a malformed color fails
// with an error wrapping colorspace.ErrInvalidColorFormat. Masks whose
// dimensions differ from img fail with raster.ErrMaskSizeMismatch. masks
// may be nil.
func Recolor(img *raster.Image, targetHex string, algo Algorithm, p Params, masks *Masks) (*Result, error) {
	target, err := colorspace.NewTargetColor(targetHex)
	if err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	run, ok := engines[algo]
	if !ok {
		return nil, fmt.Errorf("%w: unknown algorithm %v", raster.ErrInvalidParameter, algo)
	}
	p = p.Clamped()

	highlight, weights, err := resolveMasks(img, p, masks)
	if err != nil {
		return nil, err
	}

	out := run(img, target, p, weights)
	st := measure(img, out)
	st.HighlightPixels = highlight.Count()
	return &Result{
		Image:     out,
		Algorithm: algo.String(),
		Target:    target,
		Params:    p,
		Stats:     st,
	}, nil
}

// resolveMasks validates caller masks, fills in the missing ones and picks
// the weights the engine reads.
func resolveMasks(img *raster.Image, p Params, masks *Masks) (*mask.Binary, mask.Weighter, error) {
	var m Masks
	if masks != nil {
		m = *masks
	}
	if m.Highlight != nil {
		if err := mask.CheckSize(m.Highlight, img.Width, img.Height); err != nil {
			return nil, nil, err
		}
	}
	if m.Soft != nil {
		if err := mask.CheckSize(m.Soft, img.Width, img.Height); err != nil {
			return nil, nil, err
		}
	}

	var err error
	if m.Highlight == nil {
		if m.Highlight, err = mask.BuildHighlight(img, p.HighlightPercentile); err != nil {
			return nil, nil, fmt.Errorf("failed to build highlight mask: %w", err)
		}
	}
	if !p.UseSoftMask {
		return m.Highlight, m.Highlight, nil
	}
	if m.Soft == nil {
		if m.Soft, err = mask.Soften(m.Highlight, p.SoftRadius); err != nil {
			return nil, nil, fmt.Errorf("failed to soften highlight mask: %w", err)
		}
	}
	return m.Highlight, m.Soft, nil
}

type statSums struct {
	l, before, after float64
	n                int
}

// measure computes the OKLab statistics of a recolor. Sums are kept per
// row and added in row order so the result does not depend on scheduling.
func measure(src, dst *raster.Image) Stats {
	rows := raster.RowSums(src.Height, func(y int, acc *statSums) {
		for i := y * src.Width; i < (y+1)*src.Width; i++ {
			r, g, b, a := src.RGBA(i)
			if a == 0 {
				continue
			}
			before := colorspace.RGBToOKLab(r, g, b).LCh()
			r, g, b, _ = dst.RGBA(i)
			after := colorspace.RGBToOKLab(r, g, b).LCh()
			acc.l += after.L
			acc.before += before.C
			acc.after += after.C
			acc.n++
		}
	})
	var total statSums
	for _, r := range rows {
		total.l += r.l
		total.before += r.before
		total.after += r.after
		total.n += r.n
	}
	if total.n == 0 {
		return Stats{}
	}
	n := float64(total.n)
	return Stats{
		MeanL:            total.l / n,
		MeanChromaBefore: total.before / n,
		MeanChromaAfter:  total.after / n,
	}
}

// achromatic is the OKLCh chroma below which a hue angle carries no
// information.
const achromatic = 1e-4

// blendHue rotates from toward to by the given fraction along the shortest
// arc. A near-gray source has no meaningful hue, so it takes the target hue.
func blendHue(from colorspace.OKLCh, to float64, fraction float64) float64 {
	if from.C < achromatic {
		return to
	}
	return colorspace.NormalizeHue(from.H + colorspace.HueDelta(from.H, to)*fraction)
}
