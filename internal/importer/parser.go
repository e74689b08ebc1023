package importer

import (
	"fintrack/internal/core"
)

// Scope selects how an import text is interpreted.
type Scope string

const (
	ScopeHistory Scope = "history"
	ScopeYear    Scope = "year"
	ScopeMonth   Scope = "month"
)

// ParseScope maps a request value to a Scope, defaulting to history.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeHistory:
		return ScopeHistory, true
	case ScopeYear:
		return ScopeYear, true
	case ScopeMonth:
		return ScopeMonth, true
	}
	return "", false
}

// Parse dispatches to the parser of the scope. target is a YYYY year for
// ScopeYear, a YYYY-MM key for ScopeMonth and ignored for ScopeHistory.
func Parse(scope Scope, text, target string) ([]core.Snapshot, error) {
	switch scope {
	case ScopeYear:
		return ParseYear(text, target)
	case ScopeMonth:
		return ParseSingleMonth(text, target)
	default:
		return ParseHistory(text)
	}
}

// ParseHistory parses whole-history text: one snapshot per data row, every row
// carrying its own month. Duplicate months are kept; the last one wins on upsert.
func ParseHistory(text string) ([]core.Snapshot, error) {
	return parseRows(text, nil)
}

// ParseYear parses history text whose rows must all fall inside year.
func ParseYear(text, year string) ([]core.Snapshot, error) {
	if err := core.ValidateYear(year); err != nil {
		return nil, err
	}
	return parseRows(text, func(r Row, month string) error {
		if core.YearOf(month) != year {
			return &Error{Kind: KindMonthMismatch, Line: r.Line, Month: month}
		}
		return nil
	})
}

func parseRows(text string, check func(Row, string) error) ([]core.Snapshot, error) {
	t, err := ReadTable(text, HistoryLayout)
	if err != nil {
		return nil, err
	}
	c := t.Columns

	out := make([]core.Snapshot, 0, len(t.Rows))
	for _, r := range t.Rows {
		month, ok := ParseMonthToken(r.Cell(c.Month), r.Cell(c.Year))
		if !ok {
			return nil, lineError(KindInvalidMonthLine, r.Line)
		}
		if check != nil {
			if err := check(r, month); err != nil {
				return nil, err
			}
		}
		s, ok := readAmounts(r, c)
		if !ok {
			return nil, lineError(KindInvalidValuesLine, r.Line)
		}
		s.Month = month
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, ErrNoRowsImport
	}
	return out, nil
}

// ParseSingleMonth parses text meant for exactly one month. Without a month
// column every row is taken as target; with one, each row must resolve to it.
func ParseSingleMonth(text, target string) ([]core.Snapshot, error) {
	if _, _, err := core.ParseMonthKey(target); err != nil {
		return nil, err
	}
	t, err := ReadTable(text, MonthLayout)
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, ErrNoRowsImport
	}
	if !t.HasMonthColumn() && len(t.Rows) > 1 {
		return nil, ErrAmbiguousSingleRowImport
	}

	c := t.Columns
	var out []core.Snapshot
	for _, r := range t.Rows {
		month := target
		if t.HasMonthColumn() {
			resolved, ok := ParseMonthToken(r.Cell(c.Month), r.Cell(c.Year))
			if !ok {
				return nil, lineError(KindInvalidMonthLine, r.Line)
			}
			if resolved != target {
				return nil, &Error{Kind: KindMonthMismatch, Line: r.Line, Month: resolved}
			}
			month = resolved
		}
		s, ok := readAmounts(r, c)
		if !ok {
			return nil, lineError(KindInvalidValuesLine, r.Line)
		}
		s.Month = month
		out = append(out, s)
	}
	if len(out) != 1 {
		return nil, ErrSingleRowRequired
	}
	return out, nil
}

func readAmounts(r Row, c Columns) (core.Snapshot, bool) {
	income, ok := core.ParseLooseCents(r.Cell(c.Income))
	if !ok {
		return core.Snapshot{}, false
	}
	expense, ok := core.ParseLooseCents(r.Cell(c.Expense))
	if !ok {
		return core.Snapshot{}, false
	}
	balance, ok := core.ParseLooseCents(r.Cell(c.Balance))
	if !ok {
		return core.Snapshot{}, false
	}
	return core.Snapshot{IncomeCents: income, ExpenseCents: expense, BalanceCents: balance}, true
}
