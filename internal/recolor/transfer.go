package recolor

import (
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/mask"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// labTransfer shifts every pixel's CIE lightness by the distance between
// the image mean and the target, scaled by Strength, and blends a and b
// toward the target. Lightness offsets from the mean, which carry the
// weave texture, are kept. Highlights get no special treatment.
func labTransfer(src *raster.Image, target colorspace.TargetColor, p Params, _ mask.Weighter) *raster.Image {
	w := src.Width
	labs := make([]colorspace.Lab, src.Len())
	type acc struct {
		sum float64
		n   int
	}
	rows := raster.RowSums(src.Height, func(y int, a *acc) {
		for i := y * w; i < (y+1)*w; i++ {
			r, g, b, alpha := src.RGBA(i)
			labs[i] = colorspace.RGBToLab(r, g, b)
			if alpha == 0 {
				continue
			}
			a.sum += labs[i].L
			a.n++
		}
	})
	var total acc
	for _, r := range rows {
		total.sum += r.sum
		total.n += r.n
	}
	var shift float64
	if total.n > 0 {
		shift = (target.Lab.L - total.sum/float64(total.n)) * p.Strength
	}

	out := raster.New(w, src.Height)
	raster.Rows(src.Height, func(start, end int) {
		for i := start * w; i < end*w; i++ {
			c := labs[i]
			c.L = stats.Clamp(c.L+shift, 0, 100)
			c.A = stats.Lerp(c.A, target.Lab.A, p.Strength)
			c.B = stats.Lerp(c.B, target.Lab.B, p.Strength)
			r, g, b := colorspace.LabToRGB8(c)
			out.SetRGBA(i, r, g, b, src.Pix[i*4+3])
		}
	})
	return out
}
