package server

import (
	"testing"
)

func toolMap() map[string]Tool {
	m := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		m[tool.Name] = tool
	}
	return m
}

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"fabric_load",
		"fabric_sample_color",
		"fabric_sample_colors",
		"fabric_dominant_colors",
		"fabric_substrate",
		"fabric_crop",
		"fabric_preprocess",
		"fabric_neutralize",
		"fabric_autotune",
		"fabric_recolor",
		"fabric_adjust",
		"fabric_pipeline",
	}

	m := toolMap()
	for _, name := range expectedTools {
		if _, ok := m[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			required, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}

			hasPath := false
			for _, r := range required {
				if r == "path" {
					hasPath = true
				}
				if _, ok := props[r]; !ok {
					t.Errorf("required parameter %q has no property", r)
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}
		})
	}
}

func TestToolDefinitions_TargetRequired(t *testing.T) {
	m := toolMap()
	for _, name := range []string{"fabric_autotune", "fabric_recolor", "fabric_pipeline"} {
		required := m[name].InputSchema["required"].([]string)
		found := false
		for _, r := range required {
			if r == "target" {
				found = true
			}
		}
		if !found {
			t.Errorf("%s should require 'target'", name)
		}
	}
}

func TestToolDefinitions_ImageOutputs(t *testing.T) {
	m := toolMap()
	for _, name := range []string{"fabric_crop", "fabric_preprocess", "fabric_neutralize", "fabric_recolor", "fabric_adjust", "fabric_pipeline"} {
		props := m[name].InputSchema["properties"].(map[string]interface{})
		for _, p := range []string{"output_path", "preview_max"} {
			if _, ok := props[p]; !ok {
				t.Errorf("%s is missing %s", name, p)
			}
		}
	}
}

func TestToolDefinitions_AlgorithmEnum(t *testing.T) {
	props := toolMap()["fabric_recolor"].InputSchema["properties"].(map[string]interface{})
	algo, ok := props["algorithm"].(map[string]interface{})
	if !ok {
		t.Fatal("algorithm property should exist and be a map")
	}
	enum, ok := algo["enum"].([]string)
	if !ok {
		t.Fatal("algorithm should have enum")
	}

	want := map[string]bool{"classic": true, "intrinsics": true, "lab_transfer": true}
	for _, e := range enum {
		delete(want, e)
	}
	for missing := range want {
		t.Errorf("Expected algorithm %q not in enum", missing)
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	toolDefaults := map[string]map[string]interface{}{
		"fabric_dominant_colors": {"count": 5},
		"fabric_neutralize":      {"target_l": 50, "preview_max": DefaultPreviewMax},
		"fabric_recolor":         {"algorithm": "classic", "auto": false},
	}

	m := toolMap()
	for toolName, expectedDefaults := range toolDefaults {
		props, ok := m[toolName].InputSchema["properties"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: properties should be a map", toolName)
			continue
		}

		for paramName, expectedDefault := range expectedDefaults {
			param, ok := props[paramName].(map[string]interface{})
			if !ok {
				t.Errorf("%s.%s: parameter not found or not a map", toolName, paramName)
				continue
			}
			if actual, ok := param["default"]; !ok || actual != expectedDefault {
				t.Errorf("%s.%s: default got %v, want %v", toolName, paramName, actual, expectedDefault)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New()
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(toolsList) != len(GetToolDefinitions()) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(GetToolDefinitions()))
	}
}
