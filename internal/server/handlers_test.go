package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

// createTestImageFile writes a warm gray weave with a few bright pixels and
// returns its path.
func createTestImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := 110 + (x+y)%4*10
			if (x*5+y*3)%37 == 0 {
				v = 240
			}
			img.Set(x, y, color.NRGBA{uint8(v + 12), uint8(v), uint8(v - 6), 255})
		}
	}

	path := filepath.Join(t.TempDir(), "fabric.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the JSON text content.
func callTool(t *testing.T, s *Server, ctx context.Context, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleToolsCall(ctx, &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleToolsCall returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	return out, nil
}

func mustCall(t *testing.T, s *Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	out, mcpErr := callTool(t, s, context.Background(), name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %d %s: %v", name, mcpErr.Code, mcpErr.Message, mcpErr.Data)
	}
	return out
}

func object(t *testing.T, m map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	v, ok := m[key].(map[string]interface{})
	if !ok {
		t.Fatalf("%q should be an object, got %T", key, m[key])
	}
	return v
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New()
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name": 5}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	_, mcpErr := callTool(t, New(), context.Background(), "fabric_nonexistent", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("expected an error for an unknown tool")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestFabricLoad(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 40, 30)

	out := mustCall(t, s, "fabric_load", map[string]interface{}{"path": path})

	if out["width"] != float64(40) || out["height"] != float64(30) {
		t.Errorf("dimensions: got %vx%v, want 40x30", out["width"], out["height"])
	}
	if out["format"] != "png" {
		t.Errorf("format: got %v, want png", out["format"])
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache entries: got %d, want 1", s.cache.Len())
	}
}

func TestFabricLoad_NonExistentFile(t *testing.T) {
	_, mcpErr := callTool(t, New(), context.Background(), "fabric_load", map[string]interface{}{
		"path": "/nonexistent/image.png",
	})
	if mcpErr == nil {
		t.Fatal("expected an error for a missing file")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
}

func TestFabricSampleColor(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 20, 20)

	out := mustCall(t, s, "fabric_sample_color", map[string]interface{}{"path": path, "x": 1, "y": 0})
	// (1+0)%4*10 = 10, so v = 120.
	if out["hex"] != "#847872" {
		t.Errorf("hex: got %v, want #847872", out["hex"])
	}
	if _, ok := out["oklch"]; !ok {
		t.Error("result should include oklch")
	}

	_, mcpErr := callTool(t, s, context.Background(), "fabric_sample_color", map[string]interface{}{"path": path, "x": 20, "y": 0})
	if mcpErr == nil {
		t.Error("expected an error for out-of-bounds coordinates")
	}
}

func TestFabricSampleColors(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 20, 20)

	out := mustCall(t, s, "fabric_sample_colors", map[string]interface{}{
		"path": path,
		"points": []map[string]interface{}{
			{"x": 0, "y": 0, "label": "sheen"},
			{"x": 1, "y": 0, "label": "weft"},
		},
	})
	samples, ok := out["samples"].([]interface{})
	if !ok || len(samples) != 2 {
		t.Fatalf("samples: got %v", out["samples"])
	}
	first := samples[0].(map[string]interface{})
	if first["label"] != "sheen" {
		t.Errorf("label: got %v, want sheen", first["label"])
	}
}

func TestFabricDominantColors_DefaultCount(t *testing.T) {
	out := mustCall(t, New(), "fabric_dominant_colors", map[string]interface{}{"path": createTestImageFile(t, 32, 32)})
	colors, ok := out["colors"].([]interface{})
	if !ok || len(colors) == 0 || len(colors) > 5 {
		t.Fatalf("colors: got %v", out["colors"])
	}
}

func TestFabricSubstrate(t *testing.T) {
	out := mustCall(t, New(), "fabric_substrate", map[string]interface{}{
		"path":        createTestImageFile(t, 30, 20),
		"max_samples": 100,
	})
	if out["samples"] != float64(100) {
		t.Errorf("samples: got %v, want 100", out["samples"])
	}
	if out["stride"] != float64(6) {
		t.Errorf("stride: got %v, want 6", out["stride"])
	}
}

func TestFabricPreprocess_WritesOutput(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 32, 24)
	outPath := filepath.Join(t.TempDir(), "normalized.png")

	out := mustCall(t, s, "fabric_preprocess", map[string]interface{}{
		"path":        path,
		"output_path": outPath,
		"options":     map[string]interface{}{"rounds": 1},
	})

	img := object(t, out, "image")
	if img["mime_type"] != "image/png" || img["image_base64"] == "" {
		t.Errorf("unexpected image: %v", img["mime_type"])
	}
	if img["output_path"] != outPath {
		t.Errorf("output_path: got %v, want %s", img["output_path"], outPath)
	}
	details := object(t, out, "details")
	gains, ok := details["wb_gains"].([]interface{})
	if !ok || len(gains) != 3 {
		t.Errorf("wb_gains: got %v", details["wb_gains"])
	}
	if _, ok := details["highlight_pixels"]; !ok {
		t.Error("details should include highlight_pixels")
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	// The stored result is served from the cache under its output path.
	cached, err := s.cache.Load(outPath)
	if err != nil || cached.Width != 32 {
		t.Errorf("output not cached: %v", err)
	}
}

func TestFabricNeutralize_DefaultTarget(t *testing.T) {
	out := mustCall(t, New(), "fabric_neutralize", map[string]interface{}{
		"path":           createTestImageFile(t, 20, 20),
		"margin_percent": 10,
	})
	details := object(t, out, "details")
	meanL := details["mean_l"].(float64)
	deltaL := details["delta_l"].(float64)
	if math.Abs(meanL+deltaL-50) > 1e-6 {
		t.Errorf("mean_l + delta_l: got %v, want 50", meanL+deltaL)
	}
	if details["samples"] != float64(256) {
		t.Errorf("samples: got %v, want 256", details["samples"])
	}
}

func TestFabricNeutralize_InvalidTarget(t *testing.T) {
	_, mcpErr := callTool(t, New(), context.Background(), "fabric_neutralize", map[string]interface{}{
		"path":     createTestImageFile(t, 8, 8),
		"target_l": 120,
	})
	if mcpErr == nil || mcpErr.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", mcpErr)
	}
}

func TestFabricAutotune(t *testing.T) {
	out := mustCall(t, New(), "fabric_autotune", map[string]interface{}{
		"path":   createTestImageFile(t, 20, 20),
		"target": "#CC3227",
	})
	params := object(t, out, "params")
	if params["strength"] != 0.9 {
		t.Errorf("strength: got %v, want 0.9", params["strength"])
	}
	if _, ok := out["substrate"]; !ok {
		t.Error("result should include the substrate metrics")
	}
}

func TestFabricRecolor(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 32, 16)

	out := mustCall(t, s, "fabric_recolor", map[string]interface{}{
		"path":        path,
		"target":      "#3A6F9C",
		"algorithm":   "intrinsics",
		"preview_max": 8,
	})

	img := object(t, out, "image")
	if img["width"] != float64(8) || img["height"] != float64(4) {
		t.Errorf("preview: got %vx%v, want 8x4", img["width"], img["height"])
	}
	if img["source_width"] != float64(32) || img["source_height"] != float64(16) {
		t.Errorf("source: got %vx%v, want 32x16", img["source_width"], img["source_height"])
	}

	rc := object(t, object(t, out, "details"), "recolor")
	if rc["algorithm"] != "intrinsics" {
		t.Errorf("algorithm: got %v", rc["algorithm"])
	}
	stats := object(t, rc, "stats")
	if stats["mean_chroma_after"].(float64) <= stats["mean_chroma_before"].(float64) {
		t.Error("recoloring a near-gray fabric toward blue should raise chroma")
	}
}

func TestFabricRecolor_AutoWithOverride(t *testing.T) {
	out := mustCall(t, New(), "fabric_recolor", map[string]interface{}{
		"path":   createTestImageFile(t, 16, 16),
		"target": "#CC3227",
		"auto":   true,
		"params": map[string]interface{}{"strength": 0.3},
	})
	details := object(t, out, "details")
	if _, ok := details["substrate"]; !ok {
		t.Error("auto recolor should report the substrate")
	}
	params := object(t, object(t, details, "recolor"), "params")
	if params["strength"] != 0.3 {
		t.Errorf("strength: got %v, want the override 0.3", params["strength"])
	}
	if params["hue_strength"] != 0.9 {
		t.Errorf("hue_strength: got %v, want tuned 0.9", params["hue_strength"])
	}
}

func TestFabricRecolor_InvalidArguments(t *testing.T) {
	path := createTestImageFile(t, 8, 8)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"bad hex", map[string]interface{}{"path": path, "target": "red"}},
		{"unknown algorithm", map[string]interface{}{"path": path, "target": "#CC3227", "algorithm": "paint"}},
		{"bad params", map[string]interface{}{"path": path, "target": "#CC3227", "params": map[string]interface{}{"strength": "high"}}},
		{"bad argument type", map[string]interface{}{"path": 7, "target": "#CC3227"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, New(), context.Background(), "fabric_recolor", tt.args)
			if mcpErr == nil {
				t.Fatal("expected an error")
			}
			if mcpErr.Code != -32602 {
				t.Errorf("Error code: got %d, want -32602", mcpErr.Code)
			}
		})
	}
}

func TestFabricAdjust(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 8, 8)

	base := mustCall(t, s, "fabric_sample_color", map[string]interface{}{"path": path, "x": 1, "y": 0})
	outPath := filepath.Join(t.TempDir(), "brighter.png")
	out := mustCall(t, s, "fabric_adjust", map[string]interface{}{
		"path":        path,
		"brightness":  10,
		"output_path": outPath,
	})
	details := object(t, out, "details")
	if details["saturation"] != float64(1) {
		t.Errorf("saturation default: got %v, want 1", details["saturation"])
	}

	after := mustCall(t, s, "fabric_sample_color", map[string]interface{}{"path": outPath, "x": 1, "y": 0})
	l0 := object(t, base, "lab")["l"].(float64)
	l1 := object(t, after, "lab")["l"].(float64)
	if math.Abs(l1-l0-10) > 1 {
		t.Errorf("brightness: L went from %.2f to %.2f, want +10", l0, l1)
	}

	_, mcpErr := callTool(t, s, context.Background(), "fabric_adjust", map[string]interface{}{"path": path, "saturation": -1})
	if mcpErr == nil || mcpErr.Code != -32602 {
		t.Errorf("negative saturation: expected -32602, got %+v", mcpErr)
	}
}

func TestFabricPipeline_AllStages(t *testing.T) {
	out := mustCall(t, New(), "fabric_pipeline", map[string]interface{}{
		"path":       createTestImageFile(t, 24, 24),
		"target":     "#CC3227",
		"auto":       true,
		"preprocess": true,
		"neutralize": true,
		"neutral_l":  55,
		"adjust":     map[string]interface{}{"hue": 4},
	})
	details := object(t, out, "details")
	for _, stage := range []string{"preprocess", "neutral", "substrate", "recolor", "adjust"} {
		if _, ok := details[stage]; !ok {
			t.Errorf("details missing %s", stage)
		}
	}
	neutral := object(t, details, "neutral")
	if math.Abs(neutral["mean_l"].(float64)+neutral["delta_l"].(float64)-55) > 1e-6 {
		t.Error("neutral stage did not use neutral_l")
	}
}

func TestFabricPipeline_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, mcpErr := callTool(t, New(), ctx, "fabric_pipeline", map[string]interface{}{
		"path":   createTestImageFile(t, 8, 8),
		"target": "#CC3227",
	})
	if mcpErr == nil {
		t.Fatal("expected an error for a canceled context")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
	if data, _ := mcpErr.Data.(string); !strings.Contains(data, "context canceled") {
		t.Errorf("Error data: got %v", mcpErr.Data)
	}
}

func TestHandleToolsCall_Logging(t *testing.T) {
	var logs bytes.Buffer
	s := New(WithLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Output: &logs,
		Level:  hclog.Debug,
	})))

	mustCall(t, s, "fabric_load", map[string]interface{}{"path": createTestImageFile(t, 4, 4)})
	callTool(t, s, context.Background(), "fabric_load", map[string]interface{}{"path": "/nonexistent.png"})

	text := logs.String()
	if !strings.Contains(text, "[DEBUG]") || !strings.Contains(text, "tool call") {
		t.Errorf("missing debug line for the successful call: %q", text)
	}
	if !strings.Contains(text, "[WARN]") || !strings.Contains(text, "tool failed") {
		t.Errorf("missing warning for the failed call: %q", text)
	}
	if !strings.Contains(text, "tool=fabric_load") {
		t.Errorf("tool name not logged: %q", text)
	}
}

func TestFabricCrop(t *testing.T) {
	s := New()
	path := createTestImageFile(t, 40, 30)
	swatch := filepath.Join(t.TempDir(), "swatch.png")

	out := mustCall(t, s, "fabric_crop", map[string]interface{}{
		"path":        path,
		"x1":          10,
		"y1":          5,
		"x2":          30,
		"y2":          25,
		"output_path": swatch,
	})
	img := object(t, out, "image")
	if img["width"] != float64(20) || img["height"] != float64(20) {
		t.Errorf("crop size: got %vx%v, want 20x20", img["width"], img["height"])
	}

	// The swatch is cached and maps back to the source pixel (11,5)
	sample := mustCall(t, s, "fabric_sample_color", map[string]interface{}{"path": swatch, "x": 1, "y": 0})
	src := mustCall(t, s, "fabric_sample_color", map[string]interface{}{"path": path, "x": 11, "y": 5})
	if sample["hex"] != src["hex"] {
		t.Errorf("cropped pixel: got %v, want %v", sample["hex"], src["hex"])
	}

	out = mustCall(t, s, "fabric_crop", map[string]interface{}{"path": path, "region": "center"})
	img = object(t, out, "image")
	if img["width"] != float64(20) || img["height"] != float64(16) {
		t.Errorf("center size: got %vx%v, want 20x16", img["width"], img["height"])
	}
}

func TestFabricCrop_InvalidArguments(t *testing.T) {
	path := createTestImageFile(t, 20, 20)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no region or corners", map[string]interface{}{"path": path}},
		{"partial corners", map[string]interface{}{"path": path, "x1": 0, "y1": 0, "x2": 5}},
		{"unknown region", map[string]interface{}{"path": path, "region": "middle"}},
		{"out of bounds", map[string]interface{}{"path": path, "x1": 0, "y1": 0, "x2": 50, "y2": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, New(), context.Background(), "fabric_crop", tt.args)
			if mcpErr == nil || mcpErr.Code != -32602 {
				t.Errorf("expected -32602, got %+v", mcpErr)
			}
		})
	}
}
