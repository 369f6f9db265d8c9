package perflog

import (
	"math"
	"testing"
)

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]float64{0.5: 1, 1.4: 1, 2.5: 3, -0.5: 0, -1.5: -1, 1234.5: 1235}
	for in, want := range cases {
		if got := roundHalfUp(in); got != want {
			t.Fatalf("roundHalfUp(%v) = %v want %v", in, got, want)
		}
	}
}

func TestRoundToFiveDecimals(t *testing.T) {
	if got := jsNumber(roundTo(0.123456789, 5)); got != "0.12346" {
		t.Fatalf("unexpected rounded score %q", got)
	}
	if got := jsNumber(roundTo(0.1, 5)); got != "0.1" {
		t.Fatalf("unexpected rounded score %q", got)
	}
}

func TestJSNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{150, "150"},
		{20.5, "20.5"},
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{-3.25, "-3.25"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		if got := jsNumber(tc.in); got != tc.want {
			t.Fatalf("jsNumber(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestFixedAndPad(t *testing.T) {
	if got := fixed(3, 2); got != "3.00" {
		t.Fatalf("fixed(3, 2) = %q", got)
	}
	if got := fixed(102.5-100.4, 2); got != "2.10" {
		t.Fatalf("fixed(2.1, 2) = %q", got)
	}
	if got := pad("7", 5); got != "    7" {
		t.Fatalf("pad = %q", got)
	}
	if got := pad("123456", 5); got != "123456" {
		t.Fatalf("pad must not truncate, got %q", got)
	}
}

func TestRectEdges(t *testing.T) {
	r := Rect{Top: 0, Right: 100, Bottom: 20.5, Left: 12345}
	if got := r.edges(); got != "   0  100 20.5 12345" {
		t.Fatalf("unexpected edges %q", got)
	}
}

func TestConsoleSafeEscapesControlBytes(t *testing.T) {
	got := string(appendConsoleSafe(nil, "a\nb\x1b[31mc\x7f"))
	if got != `a\x0ab\x1b[31mc\x7f` {
		t.Fatalf("unexpected escape %q", got)
	}
	if got := string(appendConsoleSafe([]byte("x "), "plain ünïcode")); got != "x plain ünïcode" {
		t.Fatalf("unexpected passthrough %q", got)
	}
}
