// Package series derives month, year and all-years views from stored snapshots.
//
// Every function is pure: callers pass the full snapshot list and re-derive after
// each mutation. Income, expense and benefit are flows and are summed over a
// period; balance is a point-in-time value and is never summed.
package series

import (
	"fmt"
	"slices"

	"fintrack/internal/core"
)

// YearPoint is the rollup of one calendar year.
type YearPoint struct {
	Year         string `json:"year"`
	IncomeCents  int64  `json:"incomeCents"`
	ExpenseCents int64  `json:"expenseCents"`
	BalanceCents int64  `json:"balanceCents"`
	BenefitCents int64  `json:"benefitCents"`
}

// Totals returns the metrics of the year.
func (p YearPoint) Totals() core.Totals {
	return core.Totals{
		IncomeCents:  p.IncomeCents,
		ExpenseCents: p.ExpenseCents,
		BalanceCents: p.BalanceCents,
		BenefitCents: p.BenefitCents,
	}
}

func byMonth(snapshots []core.Snapshot) map[string]core.Snapshot {
	m := make(map[string]core.Snapshot, len(snapshots))
	for _, s := range snapshots {
		m[s.Month] = s
	}
	return m
}

// BuildYearSeries returns exactly 12 points for year, January first. Months
// without a stored snapshot are zero points carrying the right key.
func BuildYearSeries(year string, snapshots []core.Snapshot) []core.Point {
	stored := byMonth(snapshots)
	out := make([]core.Point, 12)
	for i := range out {
		key := fmt.Sprintf("%s-%02d", year, i+1)
		if s, ok := stored[key]; ok {
			out[i] = core.PointFromSnapshot(s)
			continue
		}
		out[i] = core.Point{Month: key}
	}
	return out
}

// BuildAllYears groups snapshots by year, ascending. Flows are summed; the
// balance comes from the latest month key of the year, whatever the input order.
func BuildAllYears(snapshots []core.Snapshot) []YearPoint {
	type acc struct {
		point  YearPoint
		latest string
	}
	groups := make(map[string]*acc)
	for _, s := range snapshots {
		year := core.YearOf(s.Month)
		g, ok := groups[year]
		if !ok {
			g = &acc{point: YearPoint{Year: year}}
			groups[year] = g
		}
		g.point.IncomeCents += s.IncomeCents
		g.point.ExpenseCents += s.ExpenseCents
		g.point.BenefitCents += s.Benefit()
		if g.latest == "" || s.Month > g.latest {
			g.latest = s.Month
			g.point.BalanceCents = s.BalanceCents
		}
	}

	out := make([]YearPoint, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.point)
	}
	slices.SortFunc(out, func(a, b YearPoint) int {
		switch {
		case a.Year < b.Year:
			return -1
		case a.Year > b.Year:
			return 1
		}
		return 0
	})
	return out
}

// FindYear returns the rollup for year among points.
func FindYear(points []YearPoint, year string) (YearPoint, bool) {
	for _, p := range points {
		if p.Year == year {
			return p, true
		}
	}
	return YearPoint{}, false
}

// YearTotals sums the flows of a year series. The balance is the last
// non-zero balance of the series, zero when every month is empty.
func YearTotals(points []core.Point) core.Totals {
	var t core.Totals
	for _, p := range points {
		t.IncomeCents += p.IncomeCents
		t.ExpenseCents += p.ExpenseCents
		t.BenefitCents += p.BenefitCents
		if p.BalanceCents != 0 {
			t.BalanceCents = p.BalanceCents
		}
	}
	return t
}

// PreviousDecemberBalance is the closing balance of December of the year
// before, zero when not stored.
func PreviousDecemberBalance(year string, snapshots []core.Snapshot) int64 {
	key := core.ShiftYear(year, -1) + "-12"
	for _, s := range snapshots {
		if s.Month == key {
			return s.BalanceCents
		}
	}
	return 0
}

// Lookup returns the stored snapshot for month as a point.
func Lookup(month string, snapshots []core.Snapshot) (core.Point, bool) {
	for _, s := range snapshots {
		if s.Month == month {
			return core.PointFromSnapshot(s), true
		}
	}
	return core.Point{Month: month}, false
}

// AvailableYears lists the distinct stored years plus extra, ascending.
func AvailableYears(snapshots []core.Snapshot, extra ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(y string) {
		if y == "" {
			return
		}
		if _, ok := seen[y]; ok {
			return
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	for _, s := range snapshots {
		add(core.YearOf(s.Month))
	}
	for _, y := range extra {
		add(y)
	}
	slices.Sort(out)
	return out
}

// HasData reports whether any point carries a non-zero metric.
func HasData(points []core.Point) bool {
	for _, p := range points {
		if !p.Totals().IsZero() {
			return true
		}
	}
	return false
}

// HasYearData reports whether any year carries a non-zero metric.
func HasYearData(points []YearPoint) bool {
	for _, p := range points {
		if !p.Totals().IsZero() {
			return true
		}
	}
	return false
}
