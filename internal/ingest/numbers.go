package ingest

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeScore maps sentinel and malformed score cells to 0.
func NormalizeScore(v string) int {
	switch v {
	case "", "N/A", "Error":
		return 0
	}
	return int(leadingInt(v))
}

// leadingInt parses the longest integer prefix ("85", "-3", "1200ms").
// Anything without one is 0.
func leadingInt(v string) int64 {
	v = strings.TrimSpace(v)
	end := 0
	if end < len(v) && (v[end] == '-' || v[end] == '+') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(v[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// leadingFloat parses the longest decimal prefix. NaN, Inf and garbage are 0.
func leadingFloat(v string) float64 {
	f, _ := Number(v)
	return f
}

// Number reads the numeric prefix of a display value ("2.10s" is 2.1,
// "150ms" is 150). Only decimal notation counts, so "0x10" reads as 0.
// ok is false when there is no finite prefix.
func Number(v string) (f float64, ok bool) {
	v = strings.TrimSpace(v)
	for end := len(v); end > 0; end-- {
		if hexPrefixed(v[:end]) {
			continue
		}
		f, err := strconv.ParseFloat(v[:end], 64)
		if err != nil {
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func hexPrefixed(v string) bool {
	v = strings.TrimLeft(v, "+-")
	return len(v) > 1 && v[0] == '0' && (v[1] == 'x' || v[1] == 'X')
}
