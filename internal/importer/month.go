package importer

import (
	"regexp"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// monthNames maps English and Spanish month names and abbreviations, already
// normalized, to month numbers.
var monthNames = map[string]int{
	"ene": 1, "enero": 1, "jan": 1, "january": 1,
	"feb": 2, "febrero": 2, "february": 2,
	"mar": 3, "marzo": 3, "march": 3,
	"abr": 4, "abril": 4, "apr": 4, "april": 4,
	"may": 5, "mayo": 5,
	"jun": 6, "junio": 6, "june": 6,
	"jul": 7, "julio": 7, "july": 7,
	"ago": 8, "agosto": 8, "aug": 8, "august": 8,
	"sep": 9, "sept": 9, "septiembre": 9, "setiembre": 9, "september": 9,
	"oct": 10, "octubre": 10, "october": 10,
	"nov": 11, "noviembre": 11, "november": 11,
	"dic": 12, "diciembre": 12, "dec": 12, "december": 12,
}

var (
	isoMonthRe   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})`)
	dayFirstRe   = regexp.MustCompile(`^(\d{1,2})[-/](\d{4})`)
	namedMonthRe = regexp.MustCompile(`^([a-z]+)\s+(\d{4})$`)
	bareNumberRe = regexp.MustCompile(`^\d{1,2}$`)
)

// ParseMonthToken resolves a free-form month token, plus an optional separate
// year token, to a canonical YYYY-MM key. Accepted shapes, first match wins:
//
//	2024-03, 2024/3       year first
//	03/2024, 3-2024       month first
//	march 2024, mar 2024  month name with year (English or Spanish)
//	marzo + "2024"        bare name with a separate year token
//	3 + "2024"            bare number with a separate year token
//
// The year token only counts when it holds exactly four digits.
func ParseMonthToken(rawMonth, rawYear string) (string, bool) {
	token := Normalize(rawMonth)
	if token == "" {
		return "", false
	}

	if m := isoMonthRe.FindStringSubmatch(token); m != nil {
		return monthKey(m[1], m[2])
	}
	if m := dayFirstRe.FindStringSubmatch(token); m != nil {
		return monthKey(m[2], m[1])
	}
	if m := namedMonthRe.FindStringSubmatch(token); m != nil {
		if month, ok := monthNames[m[1]]; ok {
			return monthKey(m[2], strconv.Itoa(month))
		}
	}

	year, ok := parseYearToken(rawYear)
	if !ok {
		return "", false
	}
	if month, ok := monthNames[token]; ok {
		return monthKey(year, strconv.Itoa(month))
	}
	if bareNumberRe.MatchString(token) {
		return monthKey(year, token)
	}
	return "", false
}

// parseYearToken keeps the digits of the token and requires exactly four.
func parseYearToken(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) != 4 {
		return "", false
	}
	return digits, true
}

func monthKey(yearText, monthText string) (string, bool) {
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	return core.FormatMonthKey(year, month), true
}
