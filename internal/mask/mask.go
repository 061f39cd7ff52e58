// Package mask builds the highlight masks the preprocessor and the recolor
// engines share.
//
// A Binary mask holds one byte per pixel (0 or 255). A Soft mask holds one
// weight per pixel in [0,1], produced by blurring a Binary mask so that
// highlight edges blend without seams. Dimensions must match the image they
// are applied to exactly.
package mask

import (
	"fmt"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// On is the value of a set pixel in a Binary mask.
const On = 255

// Weighter gives per-pixel highlight weights in [0,1].
type Weighter interface {
	Weight(i int) float64
	Size() (width, height int)
}

// Binary is a one-byte-per-pixel mask holding 0 or 255.
type Binary struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pix    []uint8 `json:"-"`
}

// NewBinary allocates an empty mask.
func NewBinary(width, height int) *Binary {
	return &Binary{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Weight returns 1 for set pixels and 0 otherwise.
func (m *Binary) Weight(i int) float64 {
	if m.Pix[i] != 0 {
		return 1
	}
	return 0
}

// Size returns the mask dimensions.
func (m *Binary) Size() (int, int) { return m.Width, m.Height }

// Count returns the number of set pixels.
func (m *Binary) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Soft is a per-pixel weight mask with values in [0,1].
type Soft struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Weights []float64 `json:"-"`
}

// Weight returns the weight of the i-th pixel.
func (m *Soft) Weight(i int) float64 { return m.Weights[i] }

// Size returns the mask dimensions.
func (m *Soft) Size() (int, int) { return m.Width, m.Height }

// CheckSize verifies that w describes a width x height raster and that its
// backing storage has one entry per pixel.
func CheckSize(w Weighter, width, height int) error {
	mw, mh := w.Size()
	if mw != width || mh != height {
		return fmt.Errorf("%w: mask is %dx%d, image is %dx%d", raster.ErrMaskSizeMismatch, mw, mh, width, height)
	}
	n := -1
	switch m := w.(type) {
	case *Binary:
		n = len(m.Pix)
	case *Soft:
		n = len(m.Weights)
	}
	if n >= 0 && n != width*height {
		return fmt.Errorf("%w: mask holds %d values, %dx%d needs %d", raster.ErrMaskSizeMismatch, n, width, height, width*height)
	}
	return nil
}

// Luminance returns the BT.709 luminance of every pixel, computed on the
// 0..255 encoded values.
func Luminance(img *raster.Image) []float64 {
	lum := make([]float64, img.Len())
	raster.Rows(img.Height, func(start, end int) {
		for i := start * img.Width; i < end*img.Width; i++ {
			r, g, b, _ := img.RGBA(i)
			lum[i] = colorspace.Luminance709(float64(r), float64(g), float64(b))
		}
	})
	return lum
}

// Select marks every pixel whose value satisfies keep.
func Select(vals []float64, width, height int, keep func(v float64) bool) (*Binary, error) {
	if len(vals) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", raster.ErrMaskSizeMismatch, len(vals), width, height)
	}
	m := NewBinary(width, height)
	for i, v := range vals {
		if keep(v) {
			m.Pix[i] = On
		}
	}
	return m, nil
}

// BuildHighlight marks the pixels whose luminance is at or above the given
// percentile, then applies a 3x3 opening to drop isolated hits and smooth
// the region edges.
//
// percentile must lie in (0,1); anything else returns an error wrapping
// raster.ErrInvalidParameter.
func BuildHighlight(img *raster.Image, percentile float64) (*Binary, error) {
	if !(percentile > 0 && percentile < 1) {
		return nil, fmt.Errorf("%w: percentile %v must be in (0,1)", raster.ErrInvalidParameter, percentile)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	lum := Luminance(img)
	threshold := stats.Percentile(stats.Sorted(lum), percentile)
	m, err := Select(lum, img.Width, img.Height, func(v float64) bool { return v >= threshold })
	if err != nil {
		return nil, err
	}
	return Open(m), nil
}

// Open returns the morphological opening of m: a 3x3 erosion followed by a
// 3x3 dilation. Pixels without a full 3x3 neighborhood are left at 0 in
// both passes.
func Open(m *Binary) *Binary {
	return morph(morph(m, true), false)
}

func morph(m *Binary, erode bool) *Binary {
	w, h := m.Width, m.Height
	out := NewBinary(w, h)
	raster.Rows(h, func(start, end int) {
		for y := max(start, 1); y < min(end, h-1); y++ {
			for x := 1; x < w-1; x++ {
				hit := erode
				for dy := -1; dy <= 1 && hit == erode; dy++ {
					row := (y + dy) * w
					for dx := -1; dx <= 1; dx++ {
						set := m.Pix[row+x+dx] != 0
						if set != erode {
							hit = !erode
							break
						}
					}
				}
				if hit {
					out.Pix[y*w+x] = On
				}
			}
		}
	})
	return out
}
