package series

import (
	"cmp"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// Key selects the column rows are ordered by.
type Key string

const (
	KeyPeriod  Key = "period"
	KeyIncome  Key = "income"
	KeyExpense Key = "expense"
	KeyBalance Key = "balance"
	KeyBenefit Key = "benefit"
)

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseKey accepts the key names plus "month" and "year" as the period key.
// Empty input selects the period.
func ParseKey(s string) (Key, bool) {
	switch k := Key(strings.ToLower(strings.TrimSpace(s))); k {
	case "", "month", "year", KeyPeriod:
		return KeyPeriod, true
	case KeyIncome, KeyExpense, KeyBalance, KeyBenefit:
		return k, true
	}
	return "", false
}

// ParseDirection defaults to ascending on empty input.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "", Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

func metric(t core.Totals, key Key) int64 {
	switch key {
	case KeyIncome:
		return t.IncomeCents
	case KeyExpense:
		return t.ExpenseCents
	case KeyBalance:
		return t.BalanceCents
	case KeyBenefit:
		return t.BenefitCents
	}
	return 0
}

// sortStable orders rows in place. Ties keep their input order in both
// directions.
func sortStable[T any](rows []T, key Key, dir Direction, period func(T) string, totals func(T) core.Totals) {
	slices.SortStableFunc(rows, func(a, b T) int {
		var c int
		if key == KeyPeriod {
			c = strings.Compare(period(a), period(b))
		} else {
			c = cmp.Compare(metric(totals(a), key), metric(totals(b), key))
		}
		if dir == Desc {
			return -c
		}
		return c
	})
}

// SortPoints stable-sorts month points.
func SortPoints(points []core.Point, key Key, dir Direction) {
	sortStable(points, key, dir,
		func(p core.Point) string { return p.Month },
		func(p core.Point) core.Totals { return p.Totals() })
}

// SortYears stable-sorts year points.
func SortYears(points []YearPoint, key Key, dir Direction) {
	sortStable(points, key, dir,
		func(p YearPoint) string { return p.Year },
		func(p YearPoint) core.Totals { return p.Totals() })
}

// SortMonthRows stable-sorts month rows, trends travel with their row.
func SortMonthRows(rows []MonthRow, key Key, dir Direction) {
	sortStable(rows, key, dir,
		func(r MonthRow) string { return r.Month },
		func(r MonthRow) core.Totals { return r.Totals() })
}

// SortYearRows stable-sorts year rows.
func SortYearRows(rows []YearRow, key Key, dir Direction) {
	sortStable(rows, key, dir,
		func(r YearRow) string { return r.Year },
		func(r YearRow) core.Totals { return r.YearPoint.Totals() })
}
