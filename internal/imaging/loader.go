package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// ImageCache provides thread-safe caching of decoded fabric images keyed by
// path, so the interactive loop (preview, tweak a slider, preview again)
// does not re-read the file on every call.
//
// Cached rasters are shared between callers and must be treated as
// read-only. Every pipeline stage allocates its own output, so this holds
// as long as callers never write into a returned image.
//
// # Memory Management
//
// Entries remain until removed with Evict or Clear. A megapixel RGBA
// raster costs 4 MB.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/swatch.jpg")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/swatch.jpg") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*raster.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*raster.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Parameters:
//   - path: File path to the image. PNG, JPEG, GIF, BMP, TIFF and WebP are
//     supported. EXIF orientation is applied on load, so phone photos of a
//     swatch come out upright.
//
// Returns:
//   - *raster.Image: The decoded image as non-premultiplied RGBA.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached under the exact path string provided.
func (c *ImageCache) Load(path string) (*raster.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	img := raster.FromImage(src)

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Store caches img under path, replacing any existing entry. The server
// uses this after writing a result so a follow-up call on the output path
// does not decode the file again.
func (c *ImageCache) Store(path string, img *raster.Image) {
	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*raster.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path. If the path is
// not cached this does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels, after EXIF orientation.
	Width int `json:"width"`

	// Height is the image height in pixels, after EXIF orientation.
	Height int `json:"height"`

	// Format is the decoder that recognized the file ("png", "jpeg", "webp", ...).
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache and returns its metadata.
//
// The format and color depth come from the file header, not the extension,
// so a mislabeled file is still reported correctly.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	colorDepth := "8-bit"
	switch cfg.ColorModel {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		colorDepth = "16-bit"
	}

	return &ImageInfo{
		Width:         img.Width,
		Height:        img.Height,
		Format:        format,
		ColorDepth:    colorDepth,
		HasAlpha:      !img.Opaque(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image, loading it into the
// cache if needed.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{
		Width:  img.Width,
		Height: img.Height,
	}, nil
}
