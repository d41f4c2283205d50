package wire

import (
	"strconv"
	"strings"
)

// Color is an 8-bit-per-channel RGBA color as carried in a style context.
// The zero value is fully transparent and serializes as JSON null.
type Color struct {
	R, G, B, A uint8
}

// RGB returns an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// White and Black are the common page background and stroke defaults.
var (
	White = RGB(255, 255, 255)
	Black = RGB(0, 0, 0)
)

// IsTransparent reports whether the color is fully transparent.
// Transparent colors stand for "unset" on the wire.
func (c Color) IsTransparent() bool {
	return c.A == 0
}

// appendJSON appends the wire form: an "rgba(r,g,b,a)" string, or null
// for fully transparent / unset. Alpha is written as 1 when opaque and
// as a three-digit fraction otherwise.
func (c Color) appendJSON(dst []byte) []byte {
	if c.IsTransparent() {
		return append(dst, "null"...)
	}
	dst = append(dst, `"rgba(`...)
	dst = strconv.AppendInt(dst, int64(c.R), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(c.G), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(c.B), 10)
	dst = append(dst, ',')
	if c.A == 255 {
		dst = append(dst, '1')
	} else {
		dst = strconv.AppendFloat(dst, float64(c.A)/255.0, 'f', 3, 64)
	}
	return append(dst, ')', '"')
}

// String returns the CSS-style representation, or "null" when transparent.
func (c Color) String() string {
	return string(c.appendJSON(nil))
}

// MarshalJSON implements json.Marshaler so colors embedded in message
// structs (frames are hand-encoded, inbound messages are not) keep the
// same representation everywhere.
func (c Color) MarshalJSON() ([]byte, error) {
	return c.appendJSON(nil), nil
}

// UnmarshalJSON accepts null or an "rgba(r,g,b,a)" string.
func (c *Color) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*c = Color{}
		return nil
	}
	s = strings.Trim(s, `"`)
	s = strings.TrimPrefix(s, "rgba(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return ErrMalformedMessage
	}
	r, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	g, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	b, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	a, err4 := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return ErrMalformedMessage
	}
	*c = Color{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a*255 + 0.5)}
	return nil
}
