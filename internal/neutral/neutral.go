// Package neutral turns a fabric photograph into a neutral gray "blank
// canvas" that keeps the weave and shading of the original.
package neutral

import (
	"fmt"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// MaxMarginPercent is the largest border margin Extract accepts; larger
// values are clamped so the sampled region never vanishes.
const MaxMarginPercent = 49

// Result is the extracted canvas and the lightness shift that produced it.
type Result struct {
	Image *raster.Image `json:"-"`
	// MeanL is the CIE-LAB lightness of the sampled region before the shift.
	MeanL float64 `json:"mean_l"`
	// DeltaL is the offset added to every pixel.
	DeltaL float64 `json:"delta_l"`
	// Samples is the number of pixels MeanL was computed from.
	Samples int `json:"samples"`
}

// Extract removes all chroma from img and shifts its lightness so that the
// mean CIE-LAB L of the region inside the border margin equals targetL.
//
// marginPercent is the fraction of each dimension, in percent, excluded on
// every side when measuring the mean; it is clamped to [0, 49]. Fully
// transparent pixels are not sampled. When nothing is sampled the shift is
// zero. Every pixel, margin included, is rewritten as an exact neutral gray
// with its alpha kept.
//
// targetL must lie in [0,100]; otherwise the error wraps
// raster.ErrInvalidParameter.
func Extract(img *raster.Image, targetL, marginPercent float64) (*Result, error) {
	if !(targetL >= 0 && targetL <= 100) {
		return nil, fmt.Errorf("%w: target lightness %v must be in [0,100]", raster.ErrInvalidParameter, targetL)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	margin := stats.Clamp(marginPercent, 0, MaxMarginPercent) / 100

	w, h := img.Width, img.Height
	ls := make([]float64, img.Len())
	raster.Rows(h, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			r, g, b, _ := img.RGBA(i)
			ls[i] = colorspace.RGBToLab(r, g, b).L
		}
	})

	mx, my := int(float64(w)*margin), int(float64(h)*margin)
	type acc struct {
		sum float64
		n   int
	}
	rows := raster.RowSums(h, func(y int, a *acc) {
		if y < my || y >= h-my {
			return
		}
		for x := mx; x < w-mx; x++ {
			i := y*w + x
			if img.Pix[i*4+3] == 0 {
				continue
			}
			a.sum += ls[i]
			a.n++
		}
	})
	var total acc
	for _, r := range rows {
		total.sum += r.sum
		total.n += r.n
	}

	res := &Result{Samples: total.n}
	if total.n > 0 {
		res.MeanL = total.sum / float64(total.n)
		res.DeltaL = targetL - res.MeanL
	}

	out := raster.New(w, h)
	raster.Rows(h, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			v := colorspace.GrayFromL(ls[i] + res.DeltaL)
			out.SetRGBA(i, v, v, v, img.Pix[i*4+3])
		}
	})
	res.Image = out
	return res, nil
}
