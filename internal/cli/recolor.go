package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/fabric-tint-mcp/internal/adjust"
	"github.com/ironsheep/fabric-tint-mcp/internal/imaging"
	"github.com/ironsheep/fabric-tint-mcp/internal/pipeline"
	"github.com/ironsheep/fabric-tint-mcp/internal/recolor"
)

type recolorFlags struct {
	target     string
	algorithm  string
	auto       bool
	strength   float64
	output     string
	brightness float64
	saturation float64
	hue        float64
	preprocess bool
	neutralize bool
	neutralL   float64
}

// recolorSummary is printed to stdout after a successful run.
type recolorSummary struct {
	Input  string           `json:"input"`
	Output string           `json:"output"`
	Result *pipeline.Result `json:"result"`
}

func newRecolorCmd(o *options) *cobra.Command {
	f := &recolorFlags{}
	cmd := &cobra.Command{
		Use:   "recolor <image>",
		Short: "Recolor a fabric image toward a target color",
		Long: `Run the recolor pipeline once and write the result to a file.

The stage reports (white-balance gains, substrate metrics, recolor
statistics) are printed to stdout as JSON.

Examples:
  # Recolor with the classic engine and default parameters
  fabric-tint-mcp recolor --target "#CC3227" swatch.jpg

  # Let auto-tune pick the parameters, but keep strength at 0.7
  fabric-tint-mcp recolor --target "#3A6F9C" --auto --strength 0.7 swatch.jpg

  # Full chain on a satin photo, written as PNG
  fabric-tint-mcp recolor --target "#2E5E3A" --algorithm intrinsics \
      --preprocess --neutralize --saturation 1.1 -o satin-green.png satin.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecolor(cmd, o, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.target, "target", "t", "", "target color as #RGB or #RRGGBB")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "classic", "recolor engine (classic, intrinsics, lab_transfer)")
	cmd.Flags().BoolVar(&f.auto, "auto", false, "derive parameters from the image and target")
	cmd.Flags().Float64Var(&f.strength, "strength", recolor.DefaultParams().Strength, "recolor strength (0-1)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <image>-<target>.png next to the input)")
	cmd.Flags().Float64Var(&f.brightness, "brightness", 0, "post-adjust CIE L offset")
	cmd.Flags().Float64Var(&f.saturation, "saturation", 1, "post-adjust chroma factor")
	cmd.Flags().Float64Var(&f.hue, "hue", 0, "post-adjust hue rotation in degrees")
	cmd.Flags().BoolVar(&f.preprocess, "preprocess", false, "white-balance and expose before recoloring")
	cmd.Flags().BoolVar(&f.neutralize, "neutralize", false, "neutralize to a gray canvas before recoloring")
	cmd.Flags().Float64Var(&f.neutralL, "neutral-l", pipeline.DefaultNeutralLightness, "mean CIE L of the neutral canvas")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runRecolor(cmd *cobra.Command, o *options, f *recolorFlags, input string) error {
	algo, err := recolor.ParseAlgorithm(f.algorithm)
	if err != nil {
		return err
	}

	cfg := pipeline.DefaultConfig(f.target)
	cfg.Algorithm = algo
	cfg.AutoTune = f.auto
	cfg.Preprocess = f.preprocess
	cfg.Neutralize = f.neutralize
	cfg.NeutralLightness = f.neutralL
	cfg.Adjust = adjust.Settings{Brightness: f.brightness, Saturation: f.saturation, Hue: f.hue}
	if cmd.Flags().Changed("strength") {
		strength := f.strength
		cfg.Tweak = func(p *recolor.Params) error {
			p.Strength = strength
			return nil
		}
	}

	output := f.output
	if output == "" {
		output = defaultOutputPath(input, f.target)
	}

	img, err := imaging.NewImageCache().Load(input)
	if err != nil {
		return err
	}
	o.logger.Debug("loaded image", "path", input, "width", img.Width, "height", img.Height)

	res, err := pipeline.Run(cmd.Context(), img, cfg)
	if err != nil {
		return err
	}
	if err := imaging.SaveImage(output, res.Image); err != nil {
		return err
	}
	o.logger.Info("wrote recolored image", "path", output, "algorithm", res.Recolor.Algorithm)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(recolorSummary{Input: input, Output: output, Result: res}); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// defaultOutputPath names the result after the input and the target, e.g.
// swatch.jpg recolored to #CC3227 becomes swatch-CC3227.png.
func defaultOutputPath(input, target string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "-" + strings.ToUpper(strings.TrimPrefix(target, "#")) + ".png"
}
