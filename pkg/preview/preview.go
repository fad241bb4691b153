// Package preview renders captured photos for display: decoding any
// supported still format and producing rounded-corner thumbnails.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// Display defaults for the captured image region.
const (
	DefaultMaxDim       = 480
	DefaultCornerRadius = 15
)

// ErrUnsupportedFormat is returned when no decoder accepts the data.
var ErrUnsupportedFormat = errors.New("preview: unknown or unsupported image format")

// Decode decodes JPEG, PNG, BMP or WebP data.
func Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, ErrUnsupportedFormat
}

// Thumbnail scales the photo to fit within maxDim and clips its corners
// to the given radius. The result is PNG so the corners stay transparent.
func Thumbnail(data []byte, maxDim, radius int) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	rounded := RoundCorners(img, radius)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rounded); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// RoundCorners returns a copy of img with pixels outside the rounded
// rectangle made fully transparent. The radius is clamped to half the
// shorter side.
func RoundCorners(img image.Image, radius int) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	if limit := min(w, h) / 2; radius > limit {
		radius = limit
	}
	if radius <= 0 {
		return out
	}

	r := float64(radius)
	transparent := color.NRGBA{}

	for y := 0; y < radius; y++ {
		for x := 0; x < radius; x++ {
			dx := r - float64(x) - 0.5
			dy := r - float64(y) - 0.5
			if dx*dx+dy*dy <= r*r {
				continue
			}
			out.SetNRGBA(x, y, transparent)
			out.SetNRGBA(w-1-x, y, transparent)
			out.SetNRGBA(x, h-1-y, transparent)
			out.SetNRGBA(w-1-x, h-1-y, transparent)
		}
	}
	return out
}
