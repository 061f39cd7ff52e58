package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ironsheep/fabric-tint-mcp/internal/adjust"
	"github.com/ironsheep/fabric-tint-mcp/internal/autotune"
	"github.com/ironsheep/fabric-tint-mcp/internal/colorspace"
	"github.com/ironsheep/fabric-tint-mcp/internal/imaging"
	"github.com/ironsheep/fabric-tint-mcp/internal/neutral"
	"github.com/ironsheep/fabric-tint-mcp/internal/pipeline"
	"github.com/ironsheep/fabric-tint-mcp/internal/preprocess"
	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
	"github.com/ironsheep/fabric-tint-mcp/internal/recolor"
)

// DefaultPreviewMax is the longest side of the image returned inline when
// the caller does not set preview_max. Files written to output_path are
// always full resolution.
const DefaultPreviewMax = 1024

// errInvalidArguments marks tool arguments that could not be decoded.
var errInvalidArguments = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "fabric_load", "fabric_recolor").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments and out-of-domain values (bad hex color, bad
// algorithm, mismatched masks) return -32602. Any other failure returns
// -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "duration", elapsed, "error", err)
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool call", "tool", params.Name, "duration", elapsed)

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArguments) ||
		errors.Is(err, colorspace.ErrInvalidColorFormat) ||
		errors.Is(err, raster.ErrInvalidParameter) ||
		errors.Is(err, raster.ErrMaskSizeMismatch)
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Decodes arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Runs the pipeline stage
//  5. Encodes any resulting image and writes it to output_path if asked
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Inspection
	case "fabric_load":
		return s.handleFabricLoad(args)
	case "fabric_sample_color":
		return s.handleFabricSampleColor(args)
	case "fabric_sample_colors":
		return s.handleFabricSampleColors(args)
	case "fabric_dominant_colors":
		return s.handleFabricDominantColors(args)
	case "fabric_substrate":
		return s.handleFabricSubstrate(args)
	case "fabric_crop":
		return s.handleFabricCrop(args)

	// Pipeline stages
	case "fabric_preprocess":
		return s.handleFabricPreprocess(args)
	case "fabric_neutralize":
		return s.handleFabricNeutralize(args)
	case "fabric_autotune":
		return s.handleFabricAutotune(args)
	case "fabric_recolor":
		return s.handleFabricRecolor(ctx, args)
	case "fabric_adjust":
		return s.handleFabricAdjust(args)
	case "fabric_pipeline":
		return s.handleFabricPipeline(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v. Missing arguments leave v
// at its defaults.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

// === Output Helpers ===

// outputArgs are accepted by every tool that produces an image.
type outputArgs struct {
	// OutputPath, if set, receives the full-resolution result. The format
	// follows the extension and the result is cached under this path so
	// the next tool call can read it without decoding.
	OutputPath string `json:"output_path"`
	// PreviewMax bounds the inline image; 0 returns full resolution.
	PreviewMax *int `json:"preview_max"`
}

// ImageOutput is the image part of a tool result.
type ImageOutput struct {
	*imaging.EncodedImage
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	OutputPath   string `json:"output_path,omitempty"`
}

// ImageToolResult is returned by every image-producing tool.
type ImageToolResult struct {
	Image   *ImageOutput `json:"image"`
	Details interface{}  `json:"details"`
}

func (s *Server) emit(img *raster.Image, out outputArgs, details interface{}) (*ImageToolResult, error) {
	if out.OutputPath != "" {
		if err := imaging.SaveImage(out.OutputPath, img); err != nil {
			return nil, err
		}
		s.cache.Store(out.OutputPath, img)
	}

	previewMax := DefaultPreviewMax
	if out.PreviewMax != nil {
		previewMax = *out.PreviewMax
	}
	enc, err := imaging.EncodePNGBase64(imaging.Preview(img, previewMax))
	if err != nil {
		return nil, err
	}
	return &ImageToolResult{
		Image: &ImageOutput{
			EncodedImage: enc,
			SourceWidth:  img.Width,
			SourceHeight: img.Height,
			OutputPath:   out.OutputPath,
		},
		Details: details,
	}, nil
}

// overlayParams decodes raw on top of p, so only the fields present in raw
// change.
func overlayParams(p *recolor.Params, raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("%w: params: %v", errInvalidArguments, err)
	}
	return nil
}

func parseAlgorithm(name string) (recolor.Algorithm, error) {
	if name == "" {
		return recolor.Classic, nil
	}
	return recolor.ParseAlgorithm(name)
}

// === Inspection Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFabricLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type sampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleFabricSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type sampleColorsArgs struct {
	Path   string                 `json:"path"`
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleFabricSampleColors(args json.RawMessage) (interface{}, error) {
	var a sampleColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColorsMulti(img, a.Points)
}

type dominantColorsArgs struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func (s *Server) handleFabricDominantColors(args json.RawMessage) (interface{}, error) {
	var a dominantColorsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		a.Count = 5
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.DominantColors(img, a.Count)
}

type substrateArgs struct {
	Path       string `json:"path"`
	MaxSamples int    `json:"max_samples"`
}

func (s *Server) handleFabricSubstrate(args json.RawMessage) (interface{}, error) {
	var a substrateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return autotune.SampleSubstrate(img, a.MaxSamples)
}

type cropArgs struct {
	outputArgs
	Path   string `json:"path"`
	Region string `json:"region"`
	X1     *int   `json:"x1"`
	Y1     *int   `json:"y1"`
	X2     *int   `json:"x2"`
	Y2     *int   `json:"y2"`
}

// handleFabricCrop cuts a swatch out of a larger photo, either by named
// region or by explicit corners. With output_path the swatch is cached and
// can be fed straight into the pipeline tools.
func (s *Server) handleFabricCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var cropped *raster.Image
	switch {
	case a.Region != "":
		cropped, err = imaging.CropRegion(img, a.Region)
	case a.X1 != nil && a.Y1 != nil && a.X2 != nil && a.Y2 != nil:
		cropped, err = imaging.Crop(img, *a.X1, *a.Y1, *a.X2, *a.Y2)
	default:
		return nil, fmt.Errorf("%w: either region or all of x1, y1, x2, y2 are required", errInvalidArguments)
	}
	if err != nil {
		return nil, err
	}
	return s.emit(cropped, a.outputArgs, nil)
}

// === Pipeline Stage Handlers ===

type preprocessArgs struct {
	outputArgs
	Path    string          `json:"path"`
	Options json.RawMessage `json:"options"`
}

// preprocessDetails adds the mask coverage to the preprocess report.
type preprocessDetails struct {
	*preprocess.Result
	HighlightPixels int `json:"highlight_pixels"`
	DiffusePixels   int `json:"diffuse_pixels"`
}

func (s *Server) handleFabricPreprocess(args json.RawMessage) (interface{}, error) {
	var a preprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	opts := preprocess.DefaultOptions()
	if len(a.Options) > 0 && string(a.Options) != "null" {
		if err := json.Unmarshal(a.Options, &opts); err != nil {
			return nil, fmt.Errorf("%w: options: %v", errInvalidArguments, err)
		}
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := preprocess.Normalize(img, opts)
	if err != nil {
		return nil, err
	}
	return s.emit(res.Image, a.outputArgs, preprocessDetails{
		Result:          res,
		HighlightPixels: res.Highlight.Count(),
		DiffusePixels:   res.Diffuse.Count(),
	})
}

type neutralizeArgs struct {
	outputArgs
	Path          string   `json:"path"`
	TargetL       *float64 `json:"target_l"`
	MarginPercent float64  `json:"margin_percent"`
}

func (s *Server) handleFabricNeutralize(args json.RawMessage) (interface{}, error) {
	var a neutralizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	targetL := float64(pipeline.DefaultNeutralLightness)
	if a.TargetL != nil {
		targetL = *a.TargetL
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := neutral.Extract(img, targetL, a.MarginPercent)
	if err != nil {
		return nil, err
	}
	return s.emit(res.Image, a.outputArgs, res)
}

type autotuneArgs struct {
	Path       string `json:"path"`
	Target     string `json:"target"`
	MaxSamples int    `json:"max_samples"`
}

// AutotuneResult pairs the derived parameters with the substrate they were
// derived from.
type AutotuneResult struct {
	Params    recolor.Params    `json:"params"`
	Substrate *autotune.Metrics `json:"substrate"`
}

func (s *Server) handleFabricAutotune(args json.RawMessage) (interface{}, error) {
	var a autotuneArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if _, err := colorspace.NewTargetColor(a.Target); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	p, m, err := autotune.Tune(img, a.Target, a.MaxSamples)
	if err != nil {
		return nil, err
	}
	return &AutotuneResult{Params: p, Substrate: m}, nil
}

type recolorArgs struct {
	outputArgs
	Path      string          `json:"path"`
	Target    string          `json:"target"`
	Algorithm string          `json:"algorithm"`
	Auto      bool            `json:"auto"`
	Params    json.RawMessage `json:"params"`
}

func (s *Server) handleFabricRecolor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a recolorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := recolorConfig(a)
	if err != nil {
		return nil, err
	}
	return s.runPipeline(ctx, a.Path, cfg, a.outputArgs)
}

// recolorConfig turns recolor arguments into a pipeline configuration.
// Explicit params are laid over the defaults, or over the tuned values
// when auto is set.
func recolorConfig(a recolorArgs) (pipeline.Config, error) {
	if _, err := colorspace.NewTargetColor(a.Target); err != nil {
		return pipeline.Config{}, err
	}
	algo, err := parseAlgorithm(a.Algorithm)
	if err != nil {
		return pipeline.Config{}, err
	}
	// Validate now so a bad params object is reported before pixel work.
	probe := recolor.DefaultParams()
	if err := overlayParams(&probe, a.Params); err != nil {
		return pipeline.Config{}, err
	}

	cfg := pipeline.DefaultConfig(a.Target)
	cfg.Algorithm = algo
	cfg.AutoTune = a.Auto
	if !a.Auto {
		cfg.Params = probe
	} else if len(a.Params) > 0 {
		raw := a.Params
		cfg.Tweak = func(p *recolor.Params) error { return overlayParams(p, raw) }
	}
	return cfg, nil
}

// adjustSettingsArgs are the post-adjust sliders. A missing saturation
// means 1.
type adjustSettingsArgs struct {
	Brightness float64  `json:"brightness"`
	Saturation *float64 `json:"saturation"`
	Hue        float64  `json:"hue"`
}

func (a adjustSettingsArgs) settings() adjust.Settings {
	st := adjust.Settings{Brightness: a.Brightness, Saturation: 1, Hue: a.Hue}
	if a.Saturation != nil {
		st.Saturation = *a.Saturation
	}
	return st
}

type adjustArgs struct {
	outputArgs
	adjustSettingsArgs
	Path string `json:"path"`
}

func (s *Server) handleFabricAdjust(args json.RawMessage) (interface{}, error) {
	var a adjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	st := a.settings()
	out, err := adjust.Apply(img, st)
	if err != nil {
		return nil, err
	}
	return s.emit(out, a.outputArgs, st)
}

type pipelineArgs struct {
	recolorArgs
	Preprocess        bool                `json:"preprocess"`
	PreprocessOptions json.RawMessage     `json:"preprocess_options"`
	Neutralize        bool                `json:"neutralize"`
	NeutralL          *float64            `json:"neutral_l"`
	NeutralMargin     float64             `json:"neutral_margin_percent"`
	Adjust            *adjustSettingsArgs `json:"adjust"`
}

func (s *Server) handleFabricPipeline(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := recolorConfig(a.recolorArgs)
	if err != nil {
		return nil, err
	}

	cfg.Preprocess = a.Preprocess
	if len(a.PreprocessOptions) > 0 && string(a.PreprocessOptions) != "null" {
		if err := json.Unmarshal(a.PreprocessOptions, &cfg.PreprocessOptions); err != nil {
			return nil, fmt.Errorf("%w: preprocess_options: %v", errInvalidArguments, err)
		}
	}
	cfg.Neutralize = a.Neutralize
	if a.NeutralL != nil {
		cfg.NeutralLightness = *a.NeutralL
	}
	cfg.NeutralMargin = a.NeutralMargin
	if a.Adjust != nil {
		cfg.Adjust = a.Adjust.settings()
	}
	return s.runPipeline(ctx, a.Path, cfg, a.outputArgs)
}

func (s *Server) runPipeline(ctx context.Context, path string, cfg pipeline.Config, out outputArgs) (interface{}, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(ctx, img, cfg)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pipeline finished",
		"algorithm", res.Recolor.Algorithm,
		"target", res.Recolor.Target.Hex,
		"highlight_pixels", res.Recolor.Stats.HighlightPixels)
	return s.emit(res.Image, out, res)
}
