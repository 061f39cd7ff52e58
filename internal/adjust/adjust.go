// Package adjust implements the post-recolor brightness, saturation and hue
// controls. Each operator works in CIE-LAB, keeps alpha, and returns a new
// image; the identity setting returns an exact copy of the input.
package adjust

import (
	"fmt"
	"math"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// Settings groups the three operators so callers can apply them in one
// call. The zero value of Saturation is treated as 1.
type Settings struct {
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Hue        float64 `json:"hue"`
}

// Identity reports whether s leaves every pixel unchanged.
func (s Settings) Identity() bool {
	return s.Brightness == 0 && (s.Saturation == 0 || s.Saturation == 1) && math.Mod(s.Hue, 360) == 0
}

// Apply runs Brightness, Saturation and Hue in that order.
func Apply(img *raster.Image, s Settings) (*raster.Image, error) {
	sat := s.Saturation
	if sat == 0 {
		sat = 1
	}
	out, err := Brightness(img, s.Brightness)
	if err != nil {
		return nil, err
	}
	if out, err = Saturation(out, sat); err != nil {
		return nil, err
	}
	return Hue(out, s.Hue)
}

// Brightness adds dL to the CIE lightness of every pixel, clamping L to
// [0,100].
func Brightness(img *raster.Image, dL float64) (*raster.Image, error) {
	if math.IsNaN(dL) {
		return nil, fmt.Errorf("%w: brightness delta is NaN", raster.ErrInvalidParameter)
	}
	if dL == 0 {
		return cloneValid(img)
	}
	return mapLab(img, func(c colorspace.Lab) colorspace.Lab {
		c.L = stats.Clamp(c.L+dL, 0, 100)
		return c
	})
}

// Saturation scales the a and b channels by factor. A negative factor
// returns an error wrapping raster.ErrInvalidParameter.
func Saturation(img *raster.Image, factor float64) (*raster.Image, error) {
	if !(factor >= 0) {
		return nil, fmt.Errorf("%w: saturation factor %v must not be negative", raster.ErrInvalidParameter, factor)
	}
	if factor == 1 {
		return cloneValid(img)
	}
	return mapLab(img, func(c colorspace.Lab) colorspace.Lab {
		c.A *= factor
		c.B *= factor
		return c
	})
}

// Hue rotates the LCh hue angle of every pixel by degrees, keeping chroma.
func Hue(img *raster.Image, degrees float64) (*raster.Image, error) {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return nil, fmt.Errorf("%w: hue rotation %v", raster.ErrInvalidParameter, degrees)
	}
	if math.Mod(degrees, 360) == 0 {
		return cloneValid(img)
	}
	return mapLab(img, func(c colorspace.Lab) colorspace.Lab {
		chroma := c.Chroma()
		h := colorspace.NormalizeHue(c.Hue()+degrees) * math.Pi / 180
		c.A = chroma * math.Cos(h)
		c.B = chroma * math.Sin(h)
		return c
	})
}

func cloneValid(img *raster.Image) (*raster.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img.Clone(), nil
}

// mapLab applies fn to the LAB value of every pixel, row-parallel. Results
// outside sRGB lose chroma, not lightness or hue.
func mapLab(img *raster.Image, fn func(colorspace.Lab) colorspace.Lab) (*raster.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out := raster.New(img.Width, img.Height)
	raster.Rows(img.Height, func(start, end int) {
		for i := start * img.Width; i < end*img.Width; i++ {
			r, g, b, a := img.RGBA(i)
			r, g, b = colorspace.LabToRGB8(colorspace.ClampLabToSRGB(fn(colorspace.RGBToLab(r, g, b))))
			out.SetRGBA(i, r, g, b, a)
		}
	})
	return out, nil
}
