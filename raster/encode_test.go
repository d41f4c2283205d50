package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func redPixels(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 255
		pix[i+3] = 255
	}
	return pix
}

func decodeURI(t *testing.T, uri string) (width, height int, r, a uint8) {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("missing data URI prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(uri[len(prefix):])
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	b := img.Bounds()
	cr, _, _, ca := img.At(b.Min.X, b.Min.Y).RGBA()
	return b.Dx(), b.Dy(), uint8(cr >> 8), uint8(ca >> 8)
}

func TestEncodeRoundTrip(t *testing.T) {
	uri, err := Encode(redPixels(2, 3), 2, 3)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	w, h, r, a := decodeURI(t, uri)
	if w != 2 || h != 3 {
		t.Errorf("decoded size = %dx%d, want 2x3", w, h)
	}
	if r != 255 || a != 255 {
		t.Errorf("decoded pixel = r%d a%d, want opaque red", r, a)
	}
}

func TestEncodeBadDimensions(t *testing.T) {
	tests := []struct {
		name   string
		pixels []byte
		w, h   int
	}{
		{name: "zero width", pixels: redPixels(1, 1), w: 0, h: 1},
		{name: "negative height", pixels: redPixels(1, 1), w: 1, h: -1},
		{name: "short buffer", pixels: make([]byte, 7), w: 2, h: 1},
		{name: "long buffer", pixels: make([]byte, 20), w: 2, h: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.pixels, tt.w, tt.h); !errors.Is(err, ErrBadDimensions) {
				t.Errorf("err = %v, want ErrBadDimensions", err)
			}
		})
	}
}

func TestEncodeDownscalesOversized(t *testing.T) {
	w := MaxDim + 1000
	uri, err := Encode(redPixels(w, 2), w, 2)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dw, dh, _, _ := decodeURI(t, uri)
	if dw > MaxDim || dh > MaxDim {
		t.Errorf("decoded size = %dx%d, exceeds cap %d", dw, dh, MaxDim)
	}
	if dh < 1 {
		t.Errorf("height collapsed to %d", dh)
	}
}
