package wire

import (
	"math"
	"strconv"
)

// AppendNumber appends the wire representation of a float64 to dst.
//
// Coordinates dominate frame payloads, so the format is deliberately
// compact: fixed four fractional digits with trailing zeros (and a bare
// trailing point) stripped. 700.0 encodes as "700", 0.12345 as "0.1235"
// (round half away handled by strconv), 1.5000 as "1.5".
//
// Non-finite values (NaN, ±Inf) encode as "null". The drawing host can
// legitimately hand us such values (degenerate transforms, log-scale
// zeros) and a frame must never fail to serialize because of one.
func AppendNumber(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, "null"...)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'f', 4, 64)

	// Strip trailing zeros after the decimal point, then a bare point.
	// The 'f' format with prec=4 always produces a point.
	end := len(dst)
	for end > start && dst[end-1] == '0' {
		end--
	}
	if end > start && dst[end-1] == '.' {
		end--
	}
	return dst[:end]
}

// AppendInt appends the decimal representation of an int to dst.
func AppendInt(dst []byte, v int) []byte {
	return strconv.AppendInt(dst, int64(v), 10)
}
