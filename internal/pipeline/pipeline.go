// Package pipeline chains the fabric stages in their fixed order:
// preprocess, neutralize, recolor, adjust. Preprocess, neutralize and
// adjust are optional; recolor always runs.
//
// No stage is interruptible on its own, so Run checks the context between
// stages and returns ctx.Err() as soon as it is done.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ironsheep/fabric-tint-mcp/internal/adjust"
	"github.com/ironsheep/fabric-tint-mcp/internal/autotune"
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/neutral"
	"github.com/ironsheep/fabric-tint-mcp/internal/preprocess"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/recolor"
)

// DefaultNeutralLightness is the CIE L the neutral canvas is centered on
// when the caller does not choose one.
const DefaultNeutralLightness = 50

// Config selects the stages and their settings.
type Config struct {
	Target    string
	Algorithm recolor.Algorithm

	// Params drives the recolor stage unless AutoTune is set, in which case
	// they are derived from the image the recolor stage receives. Tweak, if
	// non-nil, edits the parameters last, so explicit user settings win
	// over tuned ones.
	Params   recolor.Params
	AutoTune bool
	Tweak    func(*recolor.Params) error

	Preprocess        bool
	PreprocessOptions preprocess.Options

	Neutralize       bool
	NeutralLightness float64
	NeutralMargin    float64

	Adjust adjust.Settings
}

// DefaultConfig returns a recolor-only configuration for target.
func DefaultConfig(target string) Config {
	return Config{
		Target:            target,
		Algorithm:         recolor.Classic,
		Params:            recolor.DefaultParams(),
		PreprocessOptions: preprocess.DefaultOptions(),
		NeutralLightness:  DefaultNeutralLightness,
		Adjust:            adjust.Settings{Saturation: 1},
	}
}

// Result holds the final image and the report of every stage that ran.
type Result struct {
	Image      *raster.Image      `json:"-"`
	Preprocess *preprocess.Result `json:"preprocess,omitempty"`
	Neutral    *neutral.Result    `json:"neutral,omitempty"`
	Substrate  *autotune.Metrics  `json:"substrate,omitempty"`
	Recolor    *recolor.Result    `json:"recolor"`
	Adjust     *adjust.Settings   `json:"adjust,omitempty"`
}

// Run executes the configured stages on img. The target color is parsed
// before any pixel work. img is never modified.
func Run(ctx context.Context, img *raster.Image, cfg Config) (*Result, error) {
	if _, err := colorspace.NewTargetColor(cfg.Target); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	cur := img
	var masks *recolor.Masks

	if cfg.Preprocess {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pre, err := preprocess.Normalize(cur, cfg.PreprocessOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to preprocess: %w", err)
		}
		res.Preprocess = pre
		cur = pre.Image
		masks = &recolor.Masks{Highlight: pre.Highlight, Soft: pre.SoftHighlight}
	}

	if cfg.Neutralize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := neutral.Extract(cur, cfg.NeutralLightness, cfg.NeutralMargin)
		if err != nil {
			return nil, fmt.Errorf("failed to neutralize: %w", err)
		}
		res.Neutral = n
		cur = n.Image
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := cfg.Params
	if cfg.AutoTune {
		tuned, m, err := autotune.Tune(cur, cfg.Target, autotune.DefaultMaxSamples)
		if err != nil {
			return nil, fmt.Errorf("failed to auto-tune: %w", err)
		}
		p = tuned
		res.Substrate = m
	}
	if cfg.Tweak != nil {
		if err := cfg.Tweak(&p); err != nil {
			return nil, err
		}
	}
	rc, err := recolor.Recolor(cur, cfg.Target, cfg.Algorithm, p, masks)
	if err != nil {
		return nil, fmt.Errorf("failed to recolor: %w", err)
	}
	res.Recolor = rc
	cur = rc.Image

	if !cfg.Adjust.Identity() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		adjusted, err := adjust.Apply(cur, cfg.Adjust)
		if err != nil {
			return nil, fmt.Errorf("failed to adjust: %w", err)
		}
		settings := cfg.Adjust
		res.Adjust = &settings
		cur = adjusted
	}

	res.Image = cur
	return res, nil
}
