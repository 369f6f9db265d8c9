package perflog

import (
	"math"
	"strconv"
	"strings"
)

// roundHalfUp rounds to the nearest integer with halves going towards
// positive infinity, matching Math.round.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// roundTo rounds v half-up to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return roundHalfUp(v*scale) / scale
}

// jsNumber renders v the way Number#toString does for ordinary magnitudes:
// shortest representation, no exponent, no trailing zeros.
func jsNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fixed renders v with exactly decimals digits after the point.
func fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// pad left-fills s with spaces up to width characters.
func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
