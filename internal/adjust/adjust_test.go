package adjust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

func swatch() *raster.Image {
	colors := [][4]uint8{
		{140, 120, 110, 255},
		{120, 130, 140, 200},
		{100, 110, 90, 0},
		{204, 50, 39, 255},
		{30, 30, 30, 255},
		{250, 250, 250, 255},
	}
	img := raster.New(3, 2)
	for i, c := range colors {
		img.SetRGBA(i, c[0], c[1], c[2], c[3])
	}
	return img
}

func within(t *testing.T, want, got *raster.Image, tol int) {
	t.Helper()
	require.Equal(t, len(want.Pix), len(got.Pix))
	for i := range want.Pix {
		d := int(want.Pix[i]) - int(got.Pix[i])
		require.True(t, d >= -tol && d <= tol, "byte %d: want %d got %d", i, want.Pix[i], got.Pix[i])
	}
}

func TestIdentityOperatorsCopy(t *testing.T) {
	img := swatch()
	ops := map[string]func(*raster.Image) (*raster.Image, error){
		"brightness": func(im *raster.Image) (*raster.Image, error) { return Brightness(im, 0) },
		"saturation": func(im *raster.Image) (*raster.Image, error) { return Saturation(im, 1) },
		"hue":        func(im *raster.Image) (*raster.Image, error) { return Hue(im, 0) },
		"hue360":     func(im *raster.Image) (*raster.Image, error) { return Hue(im, 360) },
		"apply":      func(im *raster.Image) (*raster.Image, error) { return Apply(im, Settings{}) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			out, err := op(img)
			require.NoError(t, err)
			require.Equal(t, img.Pix, out.Pix)
			out.Pix[0]++
			require.NotEqual(t, img.Pix[0], out.Pix[0], "output must not alias the input")
		})
	}
}

func TestBrightness(t *testing.T) {
	img := swatch()
	out, err := Brightness(img, 10)
	require.NoError(t, err)
	for i := 0; i < img.Len(); i++ {
		r, g, b, a := img.RGBA(i)
		r2, g2, b2, a2 := out.RGBA(i)
		require.Equal(t, a, a2)
		before := colorspace.RGBToLab(r, g, b).L
		after := colorspace.RGBToLab(r2, g2, b2).L
		if before < 89 {
			require.InDelta(t, before+10, after, 1.0, "pixel %d", i)
		} else {
			require.InDelta(t, 100, after, 1.0)
		}
	}

	dark, err := Brightness(img, -200)
	require.NoError(t, err)
	for i := 0; i < dark.Len(); i++ {
		r, g, b, _ := dark.RGBA(i)
		require.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
	}
}

func TestSaturation(t *testing.T) {
	img := swatch()
	gray, err := Saturation(img, 0)
	require.NoError(t, err)
	for i := 0; i < gray.Len(); i++ {
		r, g, b, _ := gray.RGBA(i)
		require.InDelta(t, float64(r), float64(g), 1)
		require.InDelta(t, float64(g), float64(b), 1)
	}

	muted, err := Saturation(img, 0.5)
	require.NoError(t, err)
	r, g, b, _ := img.RGBA(3)
	r2, g2, b2, _ := muted.RGBA(3)
	require.InDelta(t, colorspace.RGBToLab(r, g, b).Chroma()/2, colorspace.RGBToLab(r2, g2, b2).Chroma(), 1.5)

	_, err = Saturation(img, -0.1)
	require.ErrorIs(t, err, raster.ErrInvalidParameter)
}

// Boosting a saturated red past the sRGB boundary must give up chroma, not
// lightness or hue.
func TestSaturation_OutOfGamutKeepsLightnessAndHue(t *testing.T) {
	img := raster.New(2, 1)
	img.SetRGBA(0, 204, 50, 39, 255)
	img.SetRGBA(1, 220, 30, 30, 255)

	out, err := Saturation(img, 3)
	require.NoError(t, err)
	for i := 0; i < img.Len(); i++ {
		r, g, b, _ := img.RGBA(i)
		r2, g2, b2, _ := out.RGBA(i)
		before := colorspace.RGBToLab(r, g, b)
		after := colorspace.RGBToLab(r2, g2, b2)
		require.InDelta(t, before.L, after.L, 1.5, "pixel %d", i)
		require.InDelta(t, 0, colorspace.HueDelta(before.Hue(), after.Hue()), 3, "pixel %d", i)
		require.Greater(t, after.Chroma(), 0.85*before.Chroma())
	}
}

func TestBrightness_SaturatedToBlack(t *testing.T) {
	img := raster.New(1, 1)
	img.SetRGBA(0, 220, 30, 30, 255)

	out, err := Brightness(img, -200)
	require.NoError(t, err)
	r, g, b, _ := out.RGBA(0)
	require.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestHue_RoundTrip(t *testing.T) {
	img := raster.New(3, 1)
	img.SetRGBA(0, 140, 120, 110, 255)
	img.SetRGBA(1, 120, 130, 140, 255)
	img.SetRGBA(2, 100, 110, 90, 64)

	there, err := Hue(img, 180)
	require.NoError(t, err)
	r, _, b, _ := there.RGBA(0)
	require.Less(t, r, b, "warm color must turn cool")

	back, err := Hue(there, -180)
	require.NoError(t, err)
	within(t, img, back, 2)

	// Chroma is kept.
	for i := 0; i < img.Len(); i++ {
		r, g, b, _ := img.RGBA(i)
		r2, g2, b2, _ := there.RGBA(i)
		require.InDelta(t, colorspace.RGBToLab(r, g, b).Chroma(), colorspace.RGBToLab(r2, g2, b2).Chroma(), 1.0)
	}
}

func TestInputNotModified(t *testing.T) {
	img := swatch()
	orig := img.Clone()
	_, err := Apply(img, Settings{Brightness: 5, Saturation: 1.4, Hue: 30})
	require.NoError(t, err)
	require.Equal(t, orig.Pix, img.Pix)
}

func TestInvalidImage(t *testing.T) {
	bad := &raster.Image{Width: 1, Height: 1, Pix: []uint8{1, 2}}
	_, err := Brightness(bad, 0)
	require.ErrorIs(t, err, raster.ErrInvalidParameter)
	_, err = Hue(bad, 20)
	require.ErrorIs(t, err, raster.ErrInvalidParameter)
}

func TestSettingsIdentity(t *testing.T) {
	require.True(t, Settings{}.Identity())
	require.True(t, Settings{Saturation: 1, Hue: 720}.Identity())
	require.False(t, Settings{Brightness: 1}.Identity())
	require.False(t, Settings{Saturation: 0.5}.Identity())
}

func TestACESTonemap(t *testing.T) {
	require.Equal(t, 0.0, ACESTonemap(0))
	require.Equal(t, 0.0, ACESTonemap(-0.5))
	require.Equal(t, 0.0, ACESTonemap(-0.1))
	require.Equal(t, 0.0, ACESTonemap(-1))
	require.Equal(t, 1.0, ACESTonemap(100))
	require.InDelta(t, 2.54/3.16, ACESTonemap(1), 1e-12)

	prev := 0.0
	for x := 0.01; x < 4; x += 0.01 {
		v := ACESTonemap(x)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}

	r, g, b := ACESTonemapRGB(0.18, 1, 20)
	require.Less(t, r, g)
	require.Equal(t, 1.0, b)
}
