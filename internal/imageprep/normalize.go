// Package imageprep normalizes images to the provider's 1280x720 JPEG input
// format, both in memory (Files) and in place on disk (PrepDir).
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Target frame size.
const (
	TargetWidth  = 1280
	TargetHeight = 720
)

// JPEGQuality is used for every JPEG written.
const JPEGQuality = 95

// Extensions maps supported image extensions to MIME types.
var Extensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	_, ok := Extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Decode reads an image, choosing the decoder from the file extension.
func Decode(r io.Reader, ext string) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	case ".png":
		img, err = png.Decode(r)
	case ".gif":
		img, err = gif.Decode(r)
	case ".webp":
		img, err = webp.Decode(r)
	case ".bmp":
		img, err = bmp.Decode(r)
	case ".tif", ".tiff":
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ext, err)
	}
	return img, nil
}

// CoverGeometry returns the size to scale a w x h image to so that it covers
// the target frame, and the centred crop rectangle within the scaled image.
func CoverGeometry(w, h int) (scaled image.Point, crop image.Rectangle) {
	sw := float64(TargetWidth) / float64(w)
	sh := float64(TargetHeight) / float64(h)
	scale := max(sw, sh)

	nw := max(int(math.Round(float64(w)*scale)), TargetWidth)
	nh := max(int(math.Round(float64(h)*scale)), TargetHeight)

	left := (nw - TargetWidth) / 2
	top := (nh - TargetHeight) / 2
	return image.Pt(nw, nh), image.Rect(left, top, left+TargetWidth, top+TargetHeight)
}

// IsTargetSize reports whether img already has the target dimensions.
func IsTargetSize(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() == TargetWidth && b.Dy() == TargetHeight
}

// Normalize scales img to cover the target frame and centre-crops it.
// Images already at the target size are returned unchanged.
func Normalize(img image.Image) image.Image {
	if IsTargetSize(img) {
		return img
	}
	b := img.Bounds()
	size, crop := CoverGeometry(b.Dx(), b.Dy())

	scaled := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Over, nil)

	out := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	draw.Draw(out, out.Bounds(), scaled, crop.Min, draw.Src)
	return out
}

// EncodeJPEG flattens transparency onto white and encodes img as JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
