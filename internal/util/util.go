// Package util provides small numeric helpers shared by the simulator and the
// command handlers.
package util

import (
	"math"
	"strconv"
	"strings"
)

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeDegrees wraps an angle into [0, 360). Equivalent to
// ((x % 360) + 360) % 360 with a floating point remainder.
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(math.Mod(deg, 360)+360, 360)
	// -1e-15 + 360 rounds to 360 in float64
	if d >= 360 {
		return 0
	}
	return d
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ParseNumber parses a decimal string such as " 12.5 " into a finite float.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !Finite(v) {
		return 0, false
	}
	return v, true
}
