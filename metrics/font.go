package metrics

import (
	"bytes"

	"github.com/go-text/typesetting/font"
)

// FontMeasurer answers metrics queries from a real font file. When the
// device is configured with one, it is preferred over the family-fraction
// approximation for local fallback; the peer's answer (which reflects
// the actual rendering font) still wins when the transport is up.
//
// FontMeasurer is not safe for concurrent use: font.Face keeps internal
// glyph caches. The engine is single-threaded, so one measurer per
// device is sufficient.
type FontMeasurer struct {
	face *font.Face
	upem float64
}

// NewFontMeasurer parses TTF or OTF font data.
func NewFontMeasurer(data []byte) (*FontMeasurer, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{
		face: face,
		upem: float64(face.Upem()),
	}, nil
}

// StringWidth returns the advance of text at the given pixel size.
// ok is false when the font covers none of the text's runes.
func (m *FontMeasurer) StringWidth(text string, sizePx float64) (w float64, ok bool) {
	scale := sizePx / m.upem
	any := false
	for _, r := range text {
		gid, found := m.face.NominalGlyph(r)
		if !found {
			continue
		}
		any = true
		w += float64(m.face.HorizontalAdvance(gid)) * scale
	}
	return w, any
}

// CharMetrics returns ascent, descent (both positive) and advance for a
// single character at the given pixel size. ok is false when the font
// has no glyph for the rune.
func (m *FontMeasurer) CharMetrics(r rune, sizePx float64) (ascent, descent, w float64, ok bool) {
	gid, found := m.face.NominalGlyph(r)
	if !found {
		return 0, 0, 0, false
	}
	scale := sizePx / m.upem

	ext, hasExt := m.face.FontHExtents()
	if !hasExt {
		return 0, 0, 0, false
	}
	ascent = float64(ext.Ascender) * scale
	descent = float64(ext.Descender) * scale
	if descent < 0 {
		descent = -descent
	}
	w = float64(m.face.HorizontalAdvance(gid)) * scale
	return ascent, descent, w, true
}
