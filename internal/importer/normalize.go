// Package importer turns loosely formatted CSV or pasted text into validated
// monthly snapshots.
//
// The pieces are independent: Normalize folds header and month text,
// ParseMonthToken resolves month tokens, ReadTable splits text into cells and
// resolves columns, and ParseHistory / ParseSingleMonth / ParseYear orchestrate
// them. Nothing here touches storage.
package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lowercases and strips combining accents ("Año" -> "ano").
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
