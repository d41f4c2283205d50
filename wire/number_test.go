package wire

import (
	"math"
	"testing"
)

func TestAppendNumber(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{name: "integer drops the point", v: 700, want: "700"},
		{name: "zero", v: 0, want: "0"},
		{name: "negative integer", v: -42, want: "-42"},
		{name: "trailing zeros stripped", v: 1.5, want: "1.5"},
		{name: "four digits kept", v: 0.1234, want: "0.1234"},
		{name: "fifth digit rounds", v: 123.45678, want: "123.4568"},
		{name: "tiny value rounds to zero", v: 0.00001, want: "0"},
		{name: "negative fraction", v: -2.25, want: "-2.25"},
		{name: "NaN is null", v: math.NaN(), want: "null"},
		{name: "positive infinity is null", v: math.Inf(1), want: "null"},
		{name: "negative infinity is null", v: math.Inf(-1), want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(AppendNumber(nil, tt.v))
			if got != tt.want {
				t.Errorf("AppendNumber(%v) = %q, want %q", tt.v, got, tt.want)
			}
		})
	}
}

func TestAppendNumberAppends(t *testing.T) {
	dst := []byte("x:")
	dst = AppendNumber(dst, 1.25)
	if string(dst) != "x:1.25" {
		t.Errorf("got %q, want %q", dst, "x:1.25")
	}
}

func TestAppendInt(t *testing.T) {
	if got := string(AppendInt(nil, -7)); got != "-7" {
		t.Errorf("AppendInt(-7) = %q, want %q", got, "-7")
	}
	if got := string(AppendInt(nil, 65535)); got != "65535" {
		t.Errorf("AppendInt(65535) = %q, want %q", got, "65535")
	}
}
