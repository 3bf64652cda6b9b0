// Package fixedpoint converts exchange-reported decimal strings into exact,
// unsigned fixed-point integers. All internal comparison, sorting, and
// equality in the depth aggregator is integer-exact; this package is the
// only place a decimal string is parsed, and it never uses floating point.
package fixedpoint

import (
	"strconv"
	"strings"
)

// PriceScale is the fixed scale applied to every parsed price: cents.
const PriceScale = 100

// ParsePriceCents parses a decimal string such as "30123.45" into an
// unsigned integer scaled by 100. The fractional part is truncated to two
// digits (never rounded) or right-padded with zeros if shorter. Returns
// false on malformed input or overflow.
func ParsePriceCents(s string) (uint64, bool) {
	intPart, fracPart, ok := splitDecimal(s)
	if !ok {
		return 0, false
	}

	fracPart = padOrTruncate(fracPart, 2)

	whole, ok := parseUint(intPart)
	if !ok {
		return 0, false
	}

	frac, ok := parseUint(fracPart)
	if !ok {
		return 0, false
	}

	scaled, ok := checkedMul(whole, PriceScale)
	if !ok {
		return 0, false
	}

	return checkedAdd(scaled, frac)
}

// ParseQuantitySmallestUnit parses a decimal string into an unsigned integer
// scaled by 10^d, where d is the asset's decimal precision (e.g. 8 for
// BTC-class quantities). Excess fractional digits are truncated, never
// rounded. d up to 18 is supported subject to overflow checking.
func ParseQuantitySmallestUnit(s string, d int) (uint64, bool) {
	if d < 0 || d > 18 {
		return 0, false
	}

	intPart, fracPart, ok := splitDecimal(s)
	if !ok {
		return 0, false
	}

	fracPart = padOrTruncate(fracPart, d)

	whole, ok := parseUint(intPart)
	if !ok {
		return 0, false
	}

	frac, ok := parseUint(fracPart)
	if !ok {
		return 0, false
	}

	scale, ok := pow10(d)
	if !ok {
		return 0, false
	}

	scaled, ok := checkedMul(whole, scale)
	if !ok {
		return 0, false
	}

	return checkedAdd(scaled, frac)
}

// splitDecimal splits s on "." and rejects strings with more than one dot.
// A missing fractional part is reported as "".
func splitDecimal(s string) (intPart, fracPart string, ok bool) {
	if s == "" {
		return "", "", false
	}

	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

// padOrTruncate right-pads fracPart with zeros to length n, or truncates it
// if longer, discarding precision beyond the n-th digit.
func padOrTruncate(fracPart string, n int) string {
	if len(fracPart) >= n {
		return fracPart[:n]
	}
	return fracPart + strings.Repeat("0", n-len(fracPart))
}

func parseUint(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func pow10(d int) (uint64, bool) {
	var v uint64 = 1
	for i := 0; i < d; i++ {
		next, ok := checkedMul(v, 10)
		if !ok {
			return 0, false
		}
		v = next
	}
	return v, true
}

func checkedMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	v := a * b
	if v/a != b {
		return 0, false
	}
	return v, true
}

func checkedAdd(a, b uint64) (uint64, bool) {
	v := a + b
	if v < a {
		return 0, false
	}
	return v, true
}
