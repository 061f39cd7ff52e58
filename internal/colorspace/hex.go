package colorspace

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColorFormat reports a color string that is not #RGB or #RRGGBB.
var ErrInvalidColorFormat = errors.New("invalid color format")

// hexPattern is deliberately strict: colorful.Hex alone accepts some
// malformed strings (trailing garbage after the last scanned digit).
var hexPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RGB is an 8-bit sRGB triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as "#RRGGBB".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses "#RGB" or "#RRGGBB" (case-insensitive). The 3-digit form
// expands each digit, so "#C32" is "#CC3322". Anything else, including a
// missing '#', returns an error wrapping ErrInvalidColorFormat.
func ParseHex(s string) (RGB, error) {
	if !hexPattern.MatchString(s) {
		return RGB{}, fmt.Errorf("%w: %q is not #RGB or #RRGGBB", ErrInvalidColorFormat, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %v", ErrInvalidColorFormat, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// TargetColor is a recolor target in every representation the engines use.
type TargetColor struct {
	Hex   string `json:"hex"`
	RGB   RGB    `json:"rgb"`
	Lab   Lab    `json:"lab"`
	OKLab OKLab  `json:"oklab"`
	OKLCh OKLCh  `json:"oklch"`
}

// NewTargetColor parses hex and derives the LAB and OKLab forms.
func NewTargetColor(hex string) (TargetColor, error) {
	rgb, err := ParseHex(hex)
	if err != nil {
		return TargetColor{}, err
	}
	ok := RGBToOKLab(rgb.R, rgb.G, rgb.B)
	return TargetColor{
		Hex:   rgb.Hex(),
		RGB:   rgb,
		Lab:   RGBToLab(rgb.R, rgb.G, rgb.B),
		OKLab: ok,
		OKLCh: ok.LCh(),
	}, nil
}
