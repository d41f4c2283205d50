// Package raster converts host pixel buffers into the data-URI form
// carried by raster operations.
package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// ErrBadDimensions is returned when the pixel buffer does not match the
// stated width and height.
var ErrBadDimensions = errors.New("raster: pixel buffer does not match dimensions")

// MaxDim caps either raster dimension. The frame travels as one line of
// text; an unbounded embedded image could blow past the peer's line
// limits. Oversized rasters are downscaled preserving aspect ratio.
const MaxDim = 2048

const dataURIPrefix = "data:image/png;base64,"

// Encode converts an RGBA pixel buffer (4 bytes per pixel, row-major,
// non-premultiplied) into a PNG data URI.
func Encode(pixels []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return "", ErrBadDimensions
	}

	img := &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	var src image.Image = img
	if width > MaxDim || height > MaxDim {
		src = downscale(img)
	}

	var buf bytes.Buffer
	buf.WriteString(dataURIPrefix)
	b64 := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(b64, src); err != nil {
		return "", err
	}
	if err := b64.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// downscale shrinks an image so both dimensions fit MaxDim.
func downscale(src *image.NRGBA) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := float64(MaxDim) / float64(w)
	if h > w {
		scale = float64(MaxDim) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
