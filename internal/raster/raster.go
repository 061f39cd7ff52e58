// Package raster defines the pixel buffer that every stage of the recolor
// pipeline consumes and produces.
//
// An Image is a row-major RGBA buffer with 8 bits per channel and
// non-premultiplied alpha. Alpha is carried through every operation
// untouched; only the color channels are processed.
//
// # Ownership
//
// Stages never modify their input and never retain it after returning.
// Every transform allocates and returns a fresh Image, so concurrent edits
// of the same source never race.
package raster

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrInvalidParameter reports an out-of-domain argument for which no safe
// clamp exists (a percentile outside (0,1), a negative radius, ...).
var ErrInvalidParameter = errors.New("invalid parameter")

// ErrMaskSizeMismatch reports a mask whose dimensions differ from the image
// it is applied to.
var ErrMaskSizeMismatch = errors.New("mask size mismatch")

// Image is an RGBA raster with 4 bytes per pixel.
type Image struct {
	Width  int
	Height int
	// Pix holds the pixels in R, G, B, A order. The pixel at (x, y) starts
	// at Pix[(y*Width+x)*4].
	Pix []uint8
}

// New allocates a zeroed (transparent black) image.
func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// FromPixels copies a caller-owned RGBA buffer into a new Image.
//
// Returns an error wrapping ErrInvalidParameter when the dimensions are not
// positive or the buffer length does not equal width*height*4.
func FromPixels(width, height int, pix []uint8) (*Image, error) {
	img := &Image{Width: width, Height: height, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img.Clone(), nil
}

// FromImage converts any image.Image into a raster Image. The source is
// normalized to non-premultiplied RGBA first.
func FromImage(src image.Image) *Image {
	nrgba := imaging.Clone(src)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	out := New(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return out
}

// ToNRGBA returns a copy of the image as *image.NRGBA.
func (img *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	copy(out.Pix, img.Pix)
	return out
}

// Validate checks that the dimensions are positive and match the buffer.
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: image dimensions %dx%d must be positive", ErrInvalidParameter, img.Width, img.Height)
	}
	if expected := 4 * img.Width * img.Height; len(img.Pix) != expected {
		return fmt.Errorf("%w: pixel buffer has %d bytes, %dx%d RGBA needs %d",
			ErrInvalidParameter, len(img.Pix), img.Width, img.Height, expected)
	}
	return nil
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height, Pix: make([]uint8, len(img.Pix))}
	copy(out.Pix, img.Pix)
	return out
}

// Len returns the number of pixels.
func (img *Image) Len() int { return img.Width * img.Height }

// Offset returns the index into Pix of the first byte of pixel (x, y).
func (img *Image) Offset(x, y int) int { return (y*img.Width + x) * 4 }

// RGBA returns the four channels of the i-th pixel in row-major order.
func (img *Image) RGBA(i int) (r, g, b, a uint8) {
	s := img.Pix[i*4 : i*4+4 : i*4+4]
	return s[0], s[1], s[2], s[3]
}

// SetRGBA writes the i-th pixel.
func (img *Image) SetRGBA(i int, r, g, b, a uint8) {
	s := img.Pix[i*4 : i*4+4 : i*4+4]
	s[0], s[1], s[2], s[3] = r, g, b, a
}

// Opaque reports whether every pixel has full alpha.
func (img *Image) Opaque() bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return false
		}
	}
	return true
}
