package mask

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// blockImage returns a dark w x h image with a bright square of side n whose
// top-left corner is at (x0, y0).
func blockImage(w, h, x0, y0, n int) *raster.Image {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40 + (x+y)%5)
			if x >= x0 && x < x0+n && y >= y0 && y < y0+n {
				v = 250
			}
			img.SetRGBA(y*w+x, v, v, v, 255)
		}
	}
	return img
}

func TestBuildHighlight_Shape(t *testing.T) {
	img := raster.New(23, 17)
	for i := 0; i < img.Len(); i++ {
		v := uint8(i % 256)
		img.SetRGBA(i, v, v/2, 255-v, 255)
	}
	m, err := BuildHighlight(img, 0.97)
	require.NoError(t, err)
	require.Equal(t, 23, m.Width)
	require.Equal(t, 17, m.Height)
	require.Len(t, m.Pix, 23*17)
	for i, v := range m.Pix {
		require.True(t, v == 0 || v == On, "pixel %d has value %d", i, v)
	}
}

func TestBuildHighlight_FindsBrightRegion(t *testing.T) {
	img := blockImage(20, 20, 5, 5, 5)
	m, err := BuildHighlight(img, 0.97)
	require.NoError(t, err)
	require.Equal(t, 25, m.Count())
	for y := 5; y < 10; y++ {
		for x := 5; x < 10; x++ {
			require.Equal(t, uint8(On), m.Pix[y*20+x])
		}
	}
}

func TestBuildHighlight_InvalidPercentile(t *testing.T) {
	img := blockImage(8, 8, 2, 2, 3)
	for _, p := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err := BuildHighlight(img, p)
		require.ErrorIs(t, err, raster.ErrInvalidParameter, "percentile %v", p)
	}
}

func TestBuildHighlight_InvalidImage(t *testing.T) {
	_, err := BuildHighlight(&raster.Image{Width: 4, Height: 4, Pix: make([]uint8, 10)}, 0.9)
	require.ErrorIs(t, err, raster.ErrInvalidParameter)
}

func TestOpen_RemovesIsolatedPixels(t *testing.T) {
	m := NewBinary(20, 20)
	m.Pix[5*20+5] = On
	for y := 10; y < 14; y++ {
		for x := 10; x < 14; x++ {
			m.Pix[y*20+x] = On
		}
	}
	out := Open(m)
	require.Equal(t, uint8(0), out.Pix[5*20+5])
	require.Equal(t, 16, out.Count())
	require.Equal(t, 17, m.Count(), "input must not be modified")
}

func TestOpen_BorderStaysClear(t *testing.T) {
	m := NewBinary(8, 8)
	for i := range m.Pix {
		m.Pix[i] = On
	}
	out := Open(m)
	require.Equal(t, 36, out.Count())
	for x := 0; x < 8; x++ {
		require.Zero(t, out.Pix[x])
		require.Zero(t, out.Pix[7*8+x])
		require.Zero(t, out.Pix[x*8])
		require.Zero(t, out.Pix[x*8+7])
	}
}

func TestSelect(t *testing.T) {
	m, err := Select([]float64{1, 5, 3, 7}, 2, 2, func(v float64) bool { return v > 4 })
	require.NoError(t, err)
	require.Equal(t, []uint8{0, On, 0, On}, m.Pix)

	_, err = Select([]float64{1, 2, 3}, 2, 2, func(float64) bool { return true })
	require.ErrorIs(t, err, raster.ErrMaskSizeMismatch)
}

func TestLuminance(t *testing.T) {
	img := raster.New(2, 1)
	img.SetRGBA(0, 255, 255, 255, 255)
	img.SetRGBA(1, 255, 0, 0, 255)
	lum := Luminance(img)
	require.InDelta(t, 255.0, lum[0], 1e-9)
	require.InDelta(t, 0.2126*255, lum[1], 1e-9)
}

func TestSoften(t *testing.T) {
	m := NewBinary(15, 15)
	for y := 5; y < 10; y++ {
		for x := 5; x < 10; x++ {
			m.Pix[y*15+x] = On
		}
	}
	soft, err := Soften(m, 2)
	require.NoError(t, err)
	require.Len(t, soft.Weights, 15*15)
	for _, v := range soft.Weights {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
	require.InDelta(t, 1.0, soft.Weight(7*15+7), 1e-12)
	require.InDelta(t, 0.0, soft.Weight(0), 1e-12)

	edge := soft.Weight(7*15 + 4)
	require.Greater(t, edge, 0.0)
	require.Less(t, edge, 1.0)
	require.Greater(t, soft.Weight(7*15+5), edge)
}

func TestSoften_FullMaskStaysOne(t *testing.T) {
	m := NewBinary(6, 4)
	for i := range m.Pix {
		m.Pix[i] = On
	}
	soft, err := Soften(m, 3)
	require.NoError(t, err)
	for _, v := range soft.Weights {
		require.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestSoften_ZeroRadius(t *testing.T) {
	m := NewBinary(3, 1)
	m.Pix[1] = On
	soft, err := Soften(m, 0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 0}, soft.Weights)
}

func TestSoften_Errors(t *testing.T) {
	_, err := Soften(NewBinary(4, 4), -1)
	require.ErrorIs(t, err, raster.ErrInvalidParameter)

	_, err = Soften(&Binary{Width: 4, Height: 4, Pix: make([]uint8, 15)}, 1)
	require.ErrorIs(t, err, raster.ErrMaskSizeMismatch)
}

func TestCheckSize(t *testing.T) {
	require.NoError(t, CheckSize(NewBinary(4, 3), 4, 3))
	require.ErrorIs(t, CheckSize(NewBinary(4, 3), 3, 4), raster.ErrMaskSizeMismatch)
	require.ErrorIs(t, CheckSize(&Soft{Width: 2, Height: 2, Weights: make([]float64, 3)}, 2, 2), raster.ErrMaskSizeMismatch)
}
