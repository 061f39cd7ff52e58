package adjust

import (
	"github.com/ironsheep/fabric-tint-mcp/internal/stats"
)

// Narkowicz's fit of the ACES filmic curve.
const (
	acesA = 2.51
	acesB = 0.03
	acesC = 2.43
	acesD = 0.59
	acesE = 0.14
)

// ACESTonemap maps a linear value through the ACES filmic curve
// x(ax+b) / (x(cx+d)+e), clamped to [0,1]. Negative input maps to 0.
func ACESTonemap(x float64) float64 {
	x = max(x, 0)
	return stats.Clamp01(x * (acesA*x + acesB) / (x*(acesC*x+acesD) + acesE))
}

// ACESTonemapRGB applies ACESTonemap to each linear channel.
func ACESTonemapRGB(r, g, b float64) (float64, float64, float64) {
	return ACESTonemap(r), ACESTonemap(g), ACESTonemap(b)
}
