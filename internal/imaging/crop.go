package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/fabric-tint-mcp/internal/raster"
)

// Crop extracts the rectangle [x1,x2) x [y1,y2) from img, e.g. a flat
// swatch out of a product photo. Alpha is carried over unchanged.
func Crop(img *raster.Image, x1, y1, x2, y2 int) (*raster.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if x1 < 0 || y1 < 0 || x2 > img.Width || y2 > img.Height {
		return nil, fmt.Errorf("%w: crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
			raster.ErrInvalidParameter, x1, y1, x2, y2, img.Width, img.Height)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("%w: invalid crop region: x1 must be < x2, y1 must be < y2", raster.ErrInvalidParameter)
	}
	return raster.FromImage(imaging.Crop(img.ToNRGBA(), image.Rect(x1, y1, x2, y2))), nil
}

// CropRegion extracts a named region: "top-left", "top-right",
// "bottom-left", "bottom-right", the four halves ("top-half", ...) or
// "center", the middle 50% of each dimension.
func CropRegion(img *raster.Image, region string) (*raster.Image, error) {
	w, h := img.Width, img.Height
	midX, midY := w/2, h/2

	var x1, y1, x2, y2 int
	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		x1, y1, x2, y2 = w/4, h/4, w-w/4, h-h/4
	default:
		return nil, fmt.Errorf("%w: unknown region: %s", raster.ErrInvalidParameter, region)
	}

	return Crop(img, x1, y1, x2, y2)
}
