package mask

import (
	"fmt"

	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// Soften blurs a binary mask into per-pixel weights in [0,1] with a
// separable box blur of the given radius: a horizontal pass, then a vertical
// pass. Samples past the edge repeat the edge pixel, so a fully set mask
// stays at 1 everywhere. Radius 0 returns the mask as 0/1 weights.
//
// A negative radius returns an error wrapping raster.ErrInvalidParameter;
// a Pix slice that does not hold Width*Height bytes returns an error
// wrapping raster.ErrMaskSizeMismatch.
func Soften(b *Binary, radius int) (*Soft, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: blur radius %d must not be negative", raster.ErrInvalidParameter, radius)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: nil mask", raster.ErrInvalidParameter)
	}
	w, h := b.Width, b.Height
	if w <= 0 || h <= 0 || len(b.Pix) != w*h {
		return nil, fmt.Errorf("%w: mask holds %d values for %dx%d", raster.ErrMaskSizeMismatch, len(b.Pix), w, h)
	}

	src := make([]float64, w*h)
	for i, v := range b.Pix {
		src[i] = float64(v) / On
	}
	out := &Soft{Width: w, Height: h, Weights: src}
	if radius == 0 {
		return out, nil
	}

	tmp := make([]float64, w*h)
	boxPass(src, tmp, w, h, radius, true)
	dst := make([]float64, w*h)
	boxPass(tmp, dst, w, h, radius, false)
	for i, v := range dst {
		// Accumulated rounding can push a full window a hair past 1.
		if v > 1 {
			dst[i] = 1
		} else if v < 0 {
			dst[i] = 0
		}
	}
	out.Weights = dst
	return out, nil
}

// boxPass averages each sample with its radius neighbors along one axis.
// Indices outside the raster are clamped to the nearest edge.
func boxPass(src, dst []float64, w, h, radius int, horizontal bool) {
	norm := 1 / float64(2*radius+1)
	clamp := func(v, n int) int {
		return min(max(v, 0), n-1)
	}
	raster.Rows(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for k := -radius; k <= radius; k++ {
					if horizontal {
						sum += src[y*w+clamp(x+k, w)]
					} else {
						sum += src[clamp(y+k, h)*w+x]
					}
				}
				dst[y*w+x] = sum * norm
			}
		}
	})
}
