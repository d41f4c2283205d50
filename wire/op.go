// Package wire defines the data model and newline-delimited JSON encoding
// of the render stream protocol: drawing operations, style contexts,
// outbound frames, and the tagged union of inbound control messages.
//
// Frames are hand-encoded for two reasons: the number format is
// protocol-defined (fixed precision, null for non-finite values), and the
// delta encoder slices an incrementally built ops buffer rather than
// re-serializing operations that were already sent.
package wire

import (
	"unicode/utf8"
)

// LineCap selects the stroke end-cap style.
type LineCap uint8

// Line cap styles.
const (
	CapRound LineCap = iota
	CapButt
	CapSquare
)

// String returns the wire name of the cap style.
func (c LineCap) String() string {
	switch c {
	case CapButt:
		return "butt"
	case CapSquare:
		return "square"
	default:
		return "round"
	}
}

// LineJoin selects the stroke join style.
type LineJoin uint8

// Line join styles.
const (
	JoinRound LineJoin = iota
	JoinMiter
	JoinBevel
)

// String returns the wire name of the join style.
func (j LineJoin) String() string {
	switch j {
	case JoinMiter:
		return "miter"
	case JoinBevel:
		return "bevel"
	default:
		return "round"
	}
}

// Font describes the font attributes of a style context. Face uses the
// conventional 1..4 encoding (plain, bold, italic, bold-italic); Size is
// in points.
type Font struct {
	Family     string  `json:"family"`
	Face       int     `json:"face"`
	Size       float64 `json:"size"`
	LineHeight float64 `json:"lineheight"`
}

// Style is the graphics context captured with each operation: stroke and
// fill colors, line geometry, and font attributes. Styles are recorded by
// value; an op is immutable once appended to a page.
type Style struct {
	Stroke     Color
	Fill       Color
	LineWidth  float64
	Dash       []float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Font       Font
}

// DashPattern expands a packed line-type code into a dash array scaled by
// the line width. Each nibble of the code is one on/off run length; a zero
// nibble terminates the pattern. Solid (0) and blank (-1) produce an empty
// array.
func DashPattern(lty int, lwd float64) []float64 {
	if lty <= 0 {
		return nil
	}
	var dash []float64
	for i := 0; i < 8; i++ {
		n := (lty >> (4 * i)) & 0xF
		if n == 0 {
			break
		}
		dash = append(dash, float64(n)*lwd)
	}
	return dash
}

// appendJSON writes the "gc" object for a style context.
func (s *Style) appendJSON(dst []byte) []byte {
	dst = append(dst, `"gc":{"col":`...)
	dst = s.Stroke.appendJSON(dst)
	dst = append(dst, `,"fill":`...)
	dst = s.Fill.appendJSON(dst)
	dst = append(dst, `,"lwd":`...)
	dst = AppendNumber(dst, s.LineWidth)
	dst = append(dst, `,"lty":[`...)
	for i, d := range s.Dash {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendNumber(dst, d)
	}
	dst = append(dst, `],"lend":`...)
	dst = appendString(dst, s.Cap.String())
	dst = append(dst, `,"ljoin":`...)
	dst = appendString(dst, s.Join.String())
	dst = append(dst, `,"lmitre":`...)
	dst = AppendNumber(dst, s.MiterLimit)
	dst = append(dst, `,"font":{"family":`...)
	dst = appendString(dst, s.Font.Family)
	dst = append(dst, `,"face":`...)
	dst = AppendInt(dst, s.Font.Face)
	dst = append(dst, `,"size":`...)
	dst = AppendNumber(dst, s.Font.Size)
	dst = append(dst, `,"lineheight":`...)
	dst = AppendNumber(dst, s.Font.LineHeight)
	dst = append(dst, `}}`...)
	return dst
}

// Op is one recorded drawing primitive. Implementations are the concrete
// op structs in this package; ops encode themselves so the page log can
// build its ops buffer incrementally as operations arrive.
type Op interface {
	// Kind returns the wire tag of the operation ("line", "rect", ...).
	Kind() string

	// AppendJSON appends the operation's wire object to dst.
	AppendJSON(dst []byte) []byte
}

// Line is a single stroked segment.
type Line struct {
	X1, Y1, X2, Y2 float64
	Style          Style
}

// Kind implements Op.
func (Line) Kind() string { return "line" }

// AppendJSON implements Op.
func (op Line) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"line","x1":`...)
	dst = AppendNumber(dst, op.X1)
	dst = append(dst, `,"y1":`...)
	dst = AppendNumber(dst, op.Y1)
	dst = append(dst, `,"x2":`...)
	dst = AppendNumber(dst, op.X2)
	dst = append(dst, `,"y2":`...)
	dst = AppendNumber(dst, op.Y2)
	dst = append(dst, ',')
	dst = op.Style.appendJSON(dst)
	return append(dst, '}')
}

// Polyline is a connected open sequence of stroked segments.
type Polyline struct {
	X, Y  []float64
	Style Style
}

// Kind implements Op.
func (Polyline) Kind() string { return "polyline" }

// AppendJSON implements Op.
func (op Polyline) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"polyline",`...)
	dst = appendXYStyle(dst, op.X, op.Y, &op.Style)
	return dst
}

// Polygon is a closed, fillable sequence of segments.
type Polygon struct {
	X, Y  []float64
	Style Style
}

// Kind implements Op.
func (Polygon) Kind() string { return "polygon" }

// AppendJSON implements Op.
func (op Polygon) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"polygon",`...)
	dst = appendXYStyle(dst, op.X, op.Y, &op.Style)
	return dst
}

func appendXYStyle(dst []byte, x, y []float64, s *Style) []byte {
	dst = append(dst, `"x":`...)
	dst = appendNumberArray(dst, x)
	dst = append(dst, `,"y":`...)
	dst = appendNumberArray(dst, y)
	dst = append(dst, ',')
	dst = s.appendJSON(dst)
	return append(dst, '}')
}

// Rect is an axis-aligned rectangle between two corners.
type Rect struct {
	X0, Y0, X1, Y1 float64
	Style          Style
}

// Kind implements Op.
func (Rect) Kind() string { return "rect" }

// AppendJSON implements Op.
func (op Rect) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"rect","x0":`...)
	dst = AppendNumber(dst, op.X0)
	dst = append(dst, `,"y0":`...)
	dst = AppendNumber(dst, op.Y0)
	dst = append(dst, `,"x1":`...)
	dst = AppendNumber(dst, op.X1)
	dst = append(dst, `,"y1":`...)
	dst = AppendNumber(dst, op.Y1)
	dst = append(dst, ',')
	dst = op.Style.appendJSON(dst)
	return append(dst, '}')
}

// Circle is a circle centered at (X, Y) with radius R.
type Circle struct {
	X, Y, R float64
	Style   Style
}

// Kind implements Op.
func (Circle) Kind() string { return "circle" }

// AppendJSON implements Op.
func (op Circle) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"circle","x":`...)
	dst = AppendNumber(dst, op.X)
	dst = append(dst, `,"y":`...)
	dst = AppendNumber(dst, op.Y)
	dst = append(dst, `,"r":`...)
	dst = AppendNumber(dst, op.R)
	dst = append(dst, ',')
	dst = op.Style.appendJSON(dst)
	return append(dst, '}')
}

// Text places a string at (X, Y) with rotation in degrees and horizontal
// adjustment in [0, 1].
type Text struct {
	X, Y  float64
	Str   string
	Rot   float64
	HAdj  float64
	Style Style
}

// Kind implements Op.
func (Text) Kind() string { return "text" }

// AppendJSON implements Op.
func (op Text) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"text","x":`...)
	dst = AppendNumber(dst, op.X)
	dst = append(dst, `,"y":`...)
	dst = AppendNumber(dst, op.Y)
	dst = append(dst, `,"str":`...)
	dst = appendString(dst, op.Str)
	dst = append(dst, `,"rot":`...)
	dst = AppendNumber(dst, op.Rot)
	dst = append(dst, `,"hadj":`...)
	dst = AppendNumber(dst, op.HAdj)
	dst = append(dst, ',')
	dst = op.Style.appendJSON(dst)
	return append(dst, '}')
}

// Point is one vertex of a path subpath.
type Point struct {
	X, Y float64
}

// Path is a multi-subpath filled shape with a winding rule.
type Path struct {
	// EvenOdd selects the even-odd fill rule; the default is nonzero.
	EvenOdd  bool
	Subpaths [][]Point
	Style    Style
}

// Kind implements Op.
func (Path) Kind() string { return "path" }

// AppendJSON implements Op.
func (op Path) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"path","winding":`...)
	if op.EvenOdd {
		dst = append(dst, `"evenodd"`...)
	} else {
		dst = append(dst, `"nonzero"`...)
	}
	dst = append(dst, `,"subpaths":[`...)
	for i, sp := range op.Subpaths {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '[')
		for j, pt := range sp {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, '[')
			dst = AppendNumber(dst, pt.X)
			dst = append(dst, ',')
			dst = AppendNumber(dst, pt.Y)
			dst = append(dst, ']')
		}
		dst = append(dst, ']')
	}
	dst = append(dst, `],`...)
	dst = op.Style.appendJSON(dst)
	return append(dst, '}')
}

// Raster places a pre-encoded image. Data is a data: URI produced by the
// raster encoder; PixelWidth and PixelHeight are the source dimensions,
// W and H the placement size in device units.
type Raster struct {
	X, Y, W, H  float64
	Rot         float64
	Interpolate bool
	PixelWidth  int
	PixelHeight int
	Data        string
}

// Kind implements Op.
func (Raster) Kind() string { return "raster" }

// AppendJSON implements Op.
func (op Raster) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"raster","x":`...)
	dst = AppendNumber(dst, op.X)
	dst = append(dst, `,"y":`...)
	dst = AppendNumber(dst, op.Y)
	dst = append(dst, `,"w":`...)
	dst = AppendNumber(dst, op.W)
	dst = append(dst, `,"h":`...)
	dst = AppendNumber(dst, op.H)
	dst = append(dst, `,"rot":`...)
	dst = AppendNumber(dst, op.Rot)
	dst = append(dst, `,"interpolate":`...)
	if op.Interpolate {
		dst = append(dst, "true"...)
	} else {
		dst = append(dst, "false"...)
	}
	dst = append(dst, `,"pw":`...)
	dst = AppendInt(dst, op.PixelWidth)
	dst = append(dst, `,"ph":`...)
	dst = AppendInt(dst, op.PixelHeight)
	dst = append(dst, `,"data":`...)
	if op.Data == "" {
		dst = append(dst, "null"...)
	} else {
		dst = appendString(dst, op.Data)
	}
	return append(dst, '}')
}

// Clip restricts subsequent drawing to a rectangle. Clip carries no style
// context.
type Clip struct {
	X0, Y0, X1, Y1 float64
}

// Kind implements Op.
func (Clip) Kind() string { return "clip" }

// AppendJSON implements Op.
func (op Clip) AppendJSON(dst []byte) []byte {
	dst = append(dst, `{"op":"clip","x0":`...)
	dst = AppendNumber(dst, op.X0)
	dst = append(dst, `,"y0":`...)
	dst = AppendNumber(dst, op.Y0)
	dst = append(dst, `,"x1":`...)
	dst = AppendNumber(dst, op.X1)
	dst = append(dst, `,"y1":`...)
	dst = AppendNumber(dst, op.Y1)
	return append(dst, '}')
}

func appendNumberArray(dst []byte, vals []float64) []byte {
	dst = append(dst, '[')
	for i, v := range vals {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = AppendNumber(dst, v)
	}
	return append(dst, ']')
}

const hexDigits = "0123456789abcdef"

// appendString appends a JSON string literal, escaping quotes, backslashes
// and control characters. Invalid UTF-8 bytes are replaced with U+FFFD so
// a bad host string cannot corrupt the line framing.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); {
		b := s[i]
		if b < utf8.RuneSelf {
			switch {
			case b == '"' || b == '\\':
				dst = append(dst, '\\', b)
			case b == '\n':
				dst = append(dst, '\\', 'n')
			case b == '\r':
				dst = append(dst, '\\', 'r')
			case b == '\t':
				dst = append(dst, '\\', 't')
			case b < 0x20:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[b>>4], hexDigits[b&0xF])
			default:
				dst = append(dst, b)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = utf8.AppendRune(dst, utf8.RuneError)
			i++
			continue
		}
		dst = append(dst, s[i:i+size]...)
		i += size
	}
	return append(dst, '"')
}
