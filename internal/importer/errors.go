package importer

import (
	"errors"
	"fmt"
)

// Kind classifies an import failure.
type Kind string

const (
	KindEmptyInput        Kind = "empty_input"
	KindMissingColumns    Kind = "missing_columns"
	KindInvalidMonthLine  Kind = "invalid_month_line"
	KindInvalidValuesLine Kind = "invalid_values_line"
	KindNoRows            Kind = "no_rows_import"
	KindAmbiguousSingle   Kind = "ambiguous_single_row_import"
	KindMonthMismatch     Kind = "month_mismatch"
	KindSingleRowRequired Kind = "single_row_required"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrEmptyInput               = &Error{Kind: KindEmptyInput}
	ErrMissingColumns           = &Error{Kind: KindMissingColumns}
	ErrInvalidMonthLine         = &Error{Kind: KindInvalidMonthLine}
	ErrInvalidValuesLine        = &Error{Kind: KindInvalidValuesLine}
	ErrNoRowsImport             = &Error{Kind: KindNoRows}
	ErrAmbiguousSingleRowImport = &Error{Kind: KindAmbiguousSingle}
	ErrMonthMismatch            = &Error{Kind: KindMonthMismatch}
	ErrSingleRowRequired        = &Error{Kind: KindSingleRowRequired}
)

// Error is a validation failure of an import. Line is the 1-based position of
// the offending row among the non-blank input lines, zero when not applicable.
type Error struct {
	Kind Kind
	Line int
	// Month is set for MonthMismatch.
	Month string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindEmptyInput:
		return "import: input is empty"
	case KindMissingColumns:
		return "import: header is missing a required column"
	case KindInvalidMonthLine:
		return fmt.Sprintf("import: invalid month on line %d", e.Line)
	case KindInvalidValuesLine:
		return fmt.Sprintf("import: invalid amounts on line %d", e.Line)
	case KindNoRows:
		return "import: no rows to import"
	case KindAmbiguousSingle:
		return "import: several rows without a month column"
	case KindMonthMismatch:
		if e.Line > 0 {
			return fmt.Sprintf("import: line %d belongs to %s, not the selected period", e.Line, e.Month)
		}
		return "import: row does not belong to the selected period"
	case KindSingleRowRequired:
		return "import: exactly one row is required"
	}
	return "import: " + string(e.Kind)
}

// Is matches on Kind so callers can use the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func lineError(kind Kind, line int) *Error {
	return &Error{Kind: kind, Line: line}
}

// AsError extracts an import error from err.
func AsError(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
