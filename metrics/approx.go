package metrics

import (
	"strings"

	"golang.org/x/text/width"

	"github.com/gogpu/plotstream/wire"
)

// Deterministic approximation of text metrics, used when neither the
// peer nor a local font can answer. The width fractions follow the
// classic print-device approximation: an average character advances a
// family-dependent fraction of the font size.
//
// The approximation is reproducible by construction; layout computed
// from it is stable across runs and platforms.

// Fractions of the font size.
const (
	approxAscent  = 0.75
	approxDescent = 0.25
	approxSpace   = 0.25
)

// boldFace reports whether the 1..4 face code has the bold bit.
func boldFace(face int) bool {
	return face == 2 || face == 4
}

// avgCharWidth returns the average advance of one character as a
// fraction of the font size.
func avgCharWidth(family string, face int) float64 {
	fam := strings.ToLower(family)
	switch {
	case strings.HasPrefix(fam, "mono") || fam == "courier":
		// Monospace: every char the same width.
		return 0.6
	case fam == "serif" || fam == "times":
		if boldFace(face) {
			return 0.52
		}
		return 0.48
	default:
		// Sans-serif.
		if boldFace(face) {
			return 0.56
		}
		return 0.53
	}
}

// wideRune reports whether the rune occupies a full em in East Asian
// typography. Wide runes advance the whole font size rather than the
// average-fraction estimate.
func wideRune(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}

// approxStringWidth estimates the advance of text in device units.
// sizePx is the font size already converted to device pixels. Spaces
// count at the average character width; the narrow space fraction is
// used only for single-character metrics.
func approxStringWidth(text string, f wire.Font, sizePx float64) float64 {
	cw := avgCharWidth(f.Family, f.Face)
	var w float64
	for _, r := range text {
		if wideRune(r) {
			w += 1.0
		} else {
			w += cw
		}
	}
	return w * sizePx
}

// approxCharMetrics estimates single-character metrics in device units.
func approxCharMetrics(r rune, f wire.Font, sizePx float64) (ascent, descent, charWidth float64) {
	ascent = approxAscent * sizePx
	descent = approxDescent * sizePx
	switch {
	case r == ' ':
		charWidth = approxSpace * sizePx
	case wideRune(r):
		charWidth = sizePx
	default:
		charWidth = avgCharWidth(f.Family, f.Face) * sizePx
	}
	return ascent, descent, charWidth
}
