package colorspace

import (
	"math"
)

// OKLab is a color in Björn Ottosson's OKLab space. L is in [0,1].
type OKLab struct {
	L, A, B float64
}

// OKLCh is the polar form of OKLab. C >= 0, H in degrees [0,360).
type OKLCh struct {
	L, C, H float64
}

// gamutEpsilon is the tolerance, on the 0..255 scale, for accepting a
// converted channel as inside the sRGB cube.
const gamutEpsilon = 1e-3

// clampIterations bounds the chroma reduction loop of ClampOKLChToSRGB.
const clampIterations = 32

// LinearToOKLab converts linear-light sRGB to OKLab.
func LinearToOKLab(r, g, b float64) OKLab {
	l := 0.4122214708*r + 0.5363325363*g + 0.0514459929*b
	m := 0.2119034982*r + 0.6806995451*g + 0.1073969566*b
	s := 0.0883024619*r + 0.2817188376*g + 0.6299787005*b

	l3, m3, s3 := math.Cbrt(l), math.Cbrt(m), math.Cbrt(s)

	return OKLab{
		L: 0.2104542553*l3 + 0.7936177850*m3 - 0.0040720468*s3,
		A: 1.9779984951*l3 - 2.4285922050*m3 + 0.4505937099*s3,
		B: 0.0259040371*l3 + 0.7827717662*m3 - 0.8086757660*s3,
	}
}

// OKLabToLinear converts OKLab to linear-light sRGB. The result may fall
// outside [0,1] for colors the sRGB gamut cannot represent.
func OKLabToLinear(c OKLab) (r, g, b float64) {
	l3 := c.L + 0.3963377774*c.A + 0.2158037573*c.B
	m3 := c.L - 0.1055613458*c.A - 0.0638541728*c.B
	s3 := c.L - 0.0894841775*c.A - 1.2914855480*c.B

	l, m, s := l3*l3*l3, m3*m3*m3, s3*s3*s3

	r = +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g = -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b = -0.0041960863*l - 0.7034186147*m + 1.7076147010*s
	return
}

// RGBToOKLab converts an 8-bit sRGB triple to OKLab.
func RGBToOKLab(r, g, b uint8) OKLab {
	return LinearToOKLab(SRGBToLinear(r), SRGBToLinear(g), SRGBToLinear(b))
}

// OKLabToRGB converts OKLab to sRGB on the 0..255 scale without clamping,
// so callers can test whether the color is in gamut.
func OKLabToRGB(c OKLab) (r, g, b float64) {
	lr, lg, lb := OKLabToLinear(c)
	return encodeSigned(lr) * 255, encodeSigned(lg) * 255, encodeSigned(lb) * 255
}

// OKLabToRGB8 converts OKLab to the nearest 8-bit sRGB triple, clipping
// channels that fall outside the gamut.
func OKLabToRGB8(c OKLab) (r, g, b uint8) {
	rf, gf, bf := OKLabToRGB(c)
	return To8(rf), To8(gf), To8(bf)
}

// encodeSigned mirrors the transfer function around zero so that negative
// linear values stay negative after encoding and remain detectable as out
// of gamut.
func encodeSigned(v float64) float64 {
	if v < 0 {
		return -LinearToSRGB(-v)
	}
	return LinearToSRGB(v)
}

// LCh returns the polar form of c.
func (c OKLab) LCh() OKLCh {
	return OKLCh{
		L: c.L,
		C: math.Hypot(c.A, c.B),
		H: NormalizeHue(math.Atan2(c.B, c.A) * 180 / math.Pi),
	}
}

// Lab returns the Cartesian form of c.
func (c OKLCh) Lab() OKLab {
	h := c.H * math.Pi / 180
	return OKLab{L: c.L, A: c.C * math.Cos(h), B: c.C * math.Sin(h)}
}

// InGamut reports whether an sRGB triple on the 0..255 scale lies inside
// the cube.
func InGamut(r, g, b float64) bool {
	const lo, hi = -gamutEpsilon, 255 + gamutEpsilon
	return r >= lo && g >= lo && b >= lo && r <= hi && g <= hi && b <= hi
}

// ClampOKLChToSRGB reduces chroma until the color fits inside the sRGB
// cube. C is multiplied by 0.9 per step for at most 32 steps; if that does
// not converge the color is returned with C = 0. L and H are unchanged.
//
// Some lightness/hue combinations have no in-gamut chroma other than zero,
// so the fallback is a result, not a failure.
func ClampOKLChToSRGB(c OKLCh) OKLCh {
	if math.IsNaN(c.C) || c.C < 0 {
		c.C = 0
	}
	for n := 0; n < clampIterations; n++ {
		if InGamut(OKLabToRGB(c.Lab())) {
			return c
		}
		c.C *= 0.9
	}
	if InGamut(OKLabToRGB(c.Lab())) {
		return c
	}
	c.C = 0
	return c
}
