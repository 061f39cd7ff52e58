package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file. Results written with output_path are cached and can be passed here directly.",
	}
}

func targetProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Target color as #RGB or #RRGGBB",
	}
}

// withOutput adds the output_path and preview_max properties shared by
// every image-producing tool.
func withOutput(props map[string]interface{}) map[string]interface{} {
	props["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional file to write the full-resolution result to. Format follows the extension (.png, .jpg, .tif, .bmp, .gif).",
	}
	props["preview_max"] = map[string]interface{}{
		"type":        "integer",
		"description": "Longest side of the returned preview image. 0 returns full resolution. Default 1024",
		"default":     DefaultPreviewMax,
	}
	return props
}

func recolorProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":   pathProperty(),
		"target": targetProperty(),
		"algorithm": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"classic", "intrinsics", "lab_transfer"},
			"description": "Recolor engine. classic blends hue and chroma in OKLCh; intrinsics re-tints the albedo and keeps the shading; lab_transfer shifts mean LAB. Default classic",
			"default":     "classic",
		},
		"auto": map[string]interface{}{
			"type":        "boolean",
			"description": "Derive params from the image and target first; explicit params are then applied on top",
			"default":     false,
		},
		"params": map[string]interface{}{
			"type":        "object",
			"description": "Recolor parameters; any subset of strength, hue_strength, midtone_boost, color_density, tone_match, deep_dark, highlight_darken, highlight_blend, highlight_hue_blend, highlight_neutralize, highlight_preserve (all 0-1), highlight_percentile (0.5-0.999), soft_radius (0-32), use_soft_mask, tonemap. Missing fields keep their defaults.",
		},
	}
}

func adjustProperties() map[string]interface{} {
	return map[string]interface{}{
		"brightness": map[string]interface{}{
			"type":        "number",
			"description": "Offset added to CIE L (0-100 scale). Default 0",
		},
		"saturation": map[string]interface{}{
			"type":        "number",
			"description": "Factor applied to LAB chroma. Must not be negative. Default 1",
		},
		"hue": map[string]interface{}{
			"type":        "number",
			"description": "Rotation of the LAB hue angle in degrees. Default 0",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Inspection
		{
			Name:        "fabric_load",
			Description: "Load a fabric image and return its dimensions, format, color depth and whether it has transparency. The decoded image is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "fabric_sample_color",
			Description: "Get the color at a pixel as hex, RGB, HSL, CIE-LAB and OKLCh.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "fabric_sample_colors",
			Description: "Get colors at several pixels in one call, for example weft, warp and sheen.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Points to sample, each with an optional label",
					},
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "fabric_dominant_colors",
			Description: "List the most common colors of the fabric, quantized so shades of one yarn group together.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colors to return. Default 5",
						"default":     5,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "fabric_substrate",
			Description: "Measure the fabric's OKLab lightness distribution and mean chroma and classify it as glossy or matte.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_samples": map[string]interface{}{
						"type":        "integer",
						"description": "Upper bound on sampled pixels. Default 12000",
					},
				},
				"required": []string{"path"},
			},
		},

		{
			Name:        "fabric_crop",
			Description: "Cut a swatch out of a larger photo by named region or by corner coordinates. With output_path the swatch is cached and can be passed to the other tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "left-half", "right-half", "center"},
						"description": "Named region; takes precedence over coordinates",
					},
					"x1": map[string]interface{}{"type": "integer", "description": "Left edge (inclusive)"},
					"y1": map[string]interface{}{"type": "integer", "description": "Top edge (inclusive)"},
					"x2": map[string]interface{}{"type": "integer", "description": "Right edge (exclusive)"},
					"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge (exclusive)"},
				}),
				"required": []string{"path"},
			},
		},

		// Pipeline stages
		{
			Name:        "fabric_preprocess",
			Description: "White-balance the fabric from its near-gray pixels and move its diffuse median lightness toward a target. Returns the corrected image, the gains and the highlight/diffuse mask coverage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"options": map[string]interface{}{
						"type":        "object",
						"description": "Any subset of target_lightness (0.05-0.95, default 0.6), highlight_percentile (0.5-0.999, default 0.985), gray_chroma (default 0.03), rounds (0-8, default 2), soft_radius (0-32, default 2)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "fabric_neutralize",
			Description: "Turn the fabric into a neutral gray canvas that keeps its weave and shading, with mean CIE lightness moved to target_l.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(map[string]interface{}{
					"path": pathProperty(),
					"target_l": map[string]interface{}{
						"type":        "number",
						"description": "Target mean CIE L, 0-100. Default 50",
						"default":     50,
					},
					"margin_percent": map[string]interface{}{
						"type":        "number",
						"description": "Border excluded from the mean on every side, in percent of each dimension (0-49). Default 0",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "fabric_autotune",
			Description: "Suggest recolor params for a fabric and target color from the fabric's lightness, chroma and glossiness.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"target": targetProperty(),
					"max_samples": map[string]interface{}{
						"type":        "integer",
						"description": "Upper bound on sampled pixels. Default 12000",
					},
				},
				"required": []string{"path", "target"},
			},
		},
		{
			Name:        "fabric_recolor",
			Description: "Re-tint the fabric toward a target color while keeping its texture, shading and specular highlights. Returns the image and mean lightness/chroma statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withOutput(recolorProperties()),
				"required":   []string{"path", "target"},
			},
		},
		{
			Name:        "fabric_adjust",
			Description: "Adjust brightness, saturation and hue of an image in CIE-LAB, typically a recolor result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(func() map[string]interface{} {
					props := adjustProperties()
					props["path"] = pathProperty()
					return props
				}()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "fabric_pipeline",
			Description: "Run the whole chain in one call: optional preprocess, optional neutralize, recolor, optional adjust. Masks from preprocess are reused by the recolor stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withOutput(func() map[string]interface{} {
					props := recolorProperties()
					props["preprocess"] = map[string]interface{}{
						"type":        "boolean",
						"description": "White-balance and expose before recoloring. Default false",
					}
					props["preprocess_options"] = map[string]interface{}{
						"type":        "object",
						"description": "Same fields as fabric_preprocess options",
					}
					props["neutralize"] = map[string]interface{}{
						"type":        "boolean",
						"description": "Neutralize to a gray canvas before recoloring. Default false",
					}
					props["neutral_l"] = map[string]interface{}{
						"type":        "number",
						"description": "Target mean CIE L of the gray canvas. Default 50",
					}
					props["neutral_margin_percent"] = map[string]interface{}{
						"type":        "number",
						"description": "Border excluded when measuring the canvas mean, in percent. Default 0",
					}
					props["adjust"] = map[string]interface{}{
						"type":        "object",
						"description": "Post-adjust applied last",
						"properties":  adjustProperties(),
					}
					return props
				}()),
				"required": []string{"path", "target"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
