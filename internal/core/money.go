// Package core provides money parsing and handling utilities.
//
// This file contains the locale tolerant number normalizer used by imports and
// manual entry, and the helpers converting between major units and cents.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseLooseNumber parses an amount written with either ',' or '.' as decimal
// separator, possibly decorated with currency symbols, spaces or a sign.
//
// Everything except digits, ',', '.' and '-' is dropped first. When both
// separators are present, the one occurring last is the decimal separator and
// the other is removed as a thousands separator. A lone ',' is a decimal comma.
//
// Examples:
//
//	ParseLooseNumber("1.234,56 €") -> 1234.56, true
//	ParseLooseNumber("1,234.56")   -> 1234.56, true
//	ParseLooseNumber("12,5")       -> 12.5, true
//	ParseLooseNumber("abc")        -> 0, false
func ParseLooseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		if r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	normalized := cleaned
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			normalized = strings.ReplaceAll(cleaned, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		normalized = strings.Replace(cleaned, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ToCents converts major units to cents, rounding halves upwards.
func ToCents(v float64) int64 {
	return int64(math.Floor(v*100 + 0.5))
}

// ParseLooseCents combines ParseLooseNumber and ToCents, rejecting values that
// do not fit in int64 cents.
func ParseLooseCents(s string) (int64, bool) {
	v, ok := ParseLooseNumber(s)
	if !ok {
		return 0, false
	}
	const limit = float64(math.MaxInt64) / 100
	if v >= limit || v <= -limit {
		return 0, false
	}
	return ToCents(v), true
}

// FormatDecimal renders cents with two decimals and the given decimal separator,
// without grouping. FormatDecimal(-123456, ',') == "-1234,56".
func FormatDecimal(cents int64, sep byte) string {
	neg := cents < 0
	abs := uint64(cents)
	if neg {
		abs = uint64(-cents)
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(abs/100, 10))
	b.WriteByte(sep)
	rem := abs % 100
	if rem < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatUint(rem, 10))
	return b.String()
}

// Euros returns the value in major units for display purposes.
// Use cents for calculations to avoid floating-point drift.
func Euros(cents int64) float64 {
	return float64(cents) / 100.0
}
