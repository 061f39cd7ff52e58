// Package imaging provides the file-facing side of the fabric recolor
// server: decoding swatches into rasters, describing colors, and encoding
// results.
//
// All operations work on *raster.Image, a non-premultiplied 8-bit RGBA
// buffer. Decoding and encoding go through github.com/disintegration/imaging,
// so EXIF orientation is honored and the output format follows the file
// extension.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Cached rasters are
// shared and must not be written to; every function here that produces an
// image allocates a new one.
//
// # Color Representation
//
// Sampled colors are returned in several forms:
//   - Hex: 6-character format "#RRGGBB" (alpha excluded)
//   - RGB and RGBA: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//   - Lab: CIE L*a*b* under D65, L in 0-100
//   - OKLCh: the perceptual space the recolor engines work in
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library, plus BMP, TIFF and WebP
// through golang.org/x/image. WebP is decode-only.
package imaging
