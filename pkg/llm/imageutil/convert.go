package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxSide bounds both dimensions of the payload.
	MaxSide     = 512
	jpegQuality = 85

	// MaxPixels is the largest width*height that will be decoded.
	// Same ceiling as PIL's decompression bomb error.
	MaxPixels = 2 * 89_478_485
)

// ErrTooLarge is returned for images whose header declares more than MaxPixels.
var ErrTooLarge = errors.New("image dimensions exceed limit")

// PrepareForLLM loads an image from disk, flattens any transparency onto white,
// scales it to fit within MaxSide x MaxSide and returns JPEG bytes.
// The original file on disk is not modified.
func PrepareForLLM(imagePath string) (data []byte, mimeType string, err error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("failed to rewind image: %w", err)
	}

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	// 1. Drop the alpha channel
	flat := flatten(src)

	// 2. Scale down to fit within 512x512 (no upscaling)
	scaled := scaleToFit(flat)

	// 3. Encode as JPEG
	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(jpegQuality)(&buf, scaled); err != nil {
		return nil, "", fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return buf.Bytes(), "image/jpeg", nil
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid image dimensions %dx%d", w, h)
	}
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	return nil
}

// flatten composites images that are not fully opaque onto a white background.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// FitSize returns the target size for w x h so neither side exceeds MaxSide,
// preserving aspect ratio. Sizes already within bounds are returned unchanged.
func FitSize(w, h int) (int, int) {
	if w <= MaxSide && h <= MaxSide {
		return w, h
	}

	if w >= h {
		return MaxSide, max((h*MaxSide+w/2)/w, 1)
	}
	return max((w*MaxSide+h/2)/h, 1), MaxSide
}

func scaleToFit(img image.Image) image.Image {
	b := img.Bounds()
	newW, newH := FitSize(b.Dx(), b.Dy())
	if newW == b.Dx() && newH == b.Dy() {
		return img
	}
	return transform.Resize(img, newW, newH, transform.Lanczos)
}
