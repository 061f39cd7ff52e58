// Package server implements the MCP (Model Context Protocol) server for the
// fabric recolor pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes every pipeline
// stage as a tool, so an assistant can inspect a fabric photo, tune the
// parameters and render re-tinted previews interactively.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Inspection:
//   - fabric_load: Load image and get metadata
//   - fabric_sample_color: Color at a pixel, including CIE-LAB and OKLCh
//   - fabric_sample_colors: Sample several labeled points
//   - fabric_dominant_colors: Quantized color palette
//   - fabric_substrate: Lightness/chroma distribution and glossiness
//   - fabric_crop: Cut a swatch out of a larger photo
//
// Pipeline stages:
//   - fabric_preprocess: White balance and exposure
//   - fabric_neutralize: Neutral gray canvas
//   - fabric_autotune: Suggested recolor params
//   - fabric_recolor: Re-tint toward a target color
//   - fabric_adjust: Brightness, saturation and hue in LAB
//   - fabric_pipeline: All of the above in one call
//
// Image-producing tools return a base64 PNG preview (bounded by
// preview_max) plus the stage report, and write the full-resolution result
// to output_path when given. Written results are cached under that path,
// so chaining stages across calls does not re-decode files.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for malformed arguments, bad colors, unknown algorithms
//     and out-of-range values; -32000 for any other tool failure
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Logging
//
// Every tool call is logged at debug level with its duration, and failures
// at warn level, through the hclog.Logger given with WithLogger. Nothing is
// ever written to stdout except protocol messages.
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger), server.WithVersion(version))
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("server error", "error", err)
//	}
package server
