package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// EncodedImage is a PNG ready to be returned over the MCP channel.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNGBase64 encodes img as a base64 PNG.
func EncodePNGBase64(img *raster.Image) (*EncodedImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.ToNRGBA()); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &EncodedImage{
		Width:       img.Width,
		Height:      img.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SaveImage writes img to path. The format follows the extension (".png",
// ".jpg", ".tif", ...); parent directories are created as needed.
func SaveImage(path string, img *raster.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imaging.Save(img.ToNRGBA(), path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Preview returns img scaled down with Lanczos resampling so that neither
// side exceeds maxDim, keeping the aspect ratio. Images that already fit,
// and maxDim <= 0, return img itself.
func Preview(img *raster.Image, maxDim int) *raster.Image {
	if maxDim <= 0 || (img.Width <= maxDim && img.Height <= maxDim) {
		return img
	}
	return raster.FromImage(imaging.Fit(img.ToNRGBA(), maxDim, maxDim, imaging.Lanczos))
}
