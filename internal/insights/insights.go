// Package insights computes period-over-period deltas for the visible metrics.
package insights

import (
	"math"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/series"
)

// Metric names one of the four series.
type Metric string

const (
	MetricIncome  Metric = "income"
	MetricExpense Metric = "expense"
	MetricBalance Metric = "balance"
	MetricBenefit Metric = "benefit"
)

// Metrics in display order.
var Metrics = []Metric{MetricIncome, MetricExpense, MetricBalance, MetricBenefit}

// Comparison keys.
const (
	PreviousMonth        = "previousMonth"
	PreviousYear         = "previousYear"
	PreviousYearTotal    = "previousYearTotal"
	LatestVsPreviousYear = "latestVsPreviousYear"
)

// Visible is the set of metrics shown to the user. Hidden metrics produce no
// deltas at all.
type Visible map[Metric]bool

// AllVisible enables every metric.
func AllVisible() Visible {
	v := make(Visible, len(Metrics))
	for _, m := range Metrics {
		v[m] = true
	}
	return v
}

// ParseVisible reads a comma separated list of metrics. Empty input enables
// all of them, "none" disables all, unknown names are ignored.
func ParseVisible(s string) Visible {
	s = strings.TrimSpace(s)
	if s == "" {
		return AllVisible()
	}
	v := make(Visible)
	for _, part := range strings.Split(s, ",") {
		m := Metric(strings.ToLower(strings.TrimSpace(part)))
		switch m {
		case MetricIncome, MetricExpense, MetricBalance, MetricBenefit:
			v[m] = true
		}
	}
	return v
}

func (v Visible) keys() []Metric {
	var out []Metric
	for _, m := range Metrics {
		if v[m] {
			out = append(out, m)
		}
	}
	return out
}

// Delta is the change of one metric between two periods. PercentChange is nil
// when the previous value is zero.
type Delta struct {
	Metric        Metric   `json:"key"`
	CurrentCents  int64    `json:"currentCents"`
	PreviousCents int64    `json:"previousCents"`
	DeltaCents    int64    `json:"deltaCents"`
	PercentChange *float64 `json:"percentChange"`
}

// Comparison is one comparison slot. HasData is false when the compared period
// does not exist, so the slot can render an explicit empty state.
type Comparison struct {
	Key     string  `json:"key"`
	HasData bool    `json:"hasData"`
	Deltas  []Delta `json:"deltas"`
}

// Payload groups the comparisons of a view.
type Payload struct {
	Comparisons []Comparison `json:"comparisons"`
	HasAnyData  bool         `json:"hasAnyData"`
}

// Period is a comparison target; a nil Totals means the period has no data.
type Period struct {
	Key    string
	Totals *core.Totals
}

// Options tune Compare.
type Options struct {
	// RequireVisible marks a comparison without visible metrics as having no data.
	RequireVisible bool
}

// NewDelta computes current minus previous and the percent change relative to
// the absolute previous value.
func NewDelta(m Metric, current, previous int64) Delta {
	d := Delta{Metric: m, CurrentCents: current, PreviousCents: previous, DeltaCents: current - previous}
	if previous != 0 {
		pct := float64(d.DeltaCents) / math.Abs(float64(previous)) * 100
		d.PercentChange = &pct
	}
	return d
}

func value(t core.Totals, m Metric) int64 {
	switch m {
	case MetricIncome:
		return t.IncomeCents
	case MetricExpense:
		return t.ExpenseCents
	case MetricBalance:
		return t.BalanceCents
	case MetricBenefit:
		return t.BenefitCents
	}
	return 0
}

// Compare builds one comparison per period, deltas for the visible metrics only.
func Compare(current core.Totals, periods []Period, visible Visible, opts Options) Payload {
	keys := visible.keys()
	p := Payload{Comparisons: make([]Comparison, 0, len(periods))}
	for _, period := range periods {
		c := Comparison{Key: period.Key, Deltas: []Delta{}}
		if period.Totals != nil && (!opts.RequireVisible || len(keys) > 0) {
			c.HasData = true
			for _, m := range keys {
				c.Deltas = append(c.Deltas, NewDelta(m, value(current, m), value(*period.Totals, m)))
			}
		}
		if c.HasData && len(c.Deltas) > 0 {
			p.HasAnyData = true
		}
		p.Comparisons = append(p.Comparisons, c)
	}
	return p
}

func pointTotals(p core.Point, ok bool) *core.Totals {
	if !ok {
		return nil
	}
	t := p.Totals()
	return &t
}

// ForMonth compares month with the previous month and the same month of the
// previous year, both looked up among stored snapshots. When month is the
// current calendar month and holds no data the payload is empty.
func ForMonth(month string, snapshots []core.Snapshot, visible Visible, isCurrentMonth bool) Payload {
	current, ok := series.Lookup(month, snapshots)
	if isCurrentMonth && (!ok || current.Totals().IsZero()) {
		return Payload{Comparisons: []Comparison{}}
	}
	prevMonth, okMonth := series.Lookup(core.ShiftMonth(month, -1), snapshots)
	prevYear, okYear := series.Lookup(core.ShiftMonth(month, -12), snapshots)
	return Compare(current.Totals(), []Period{
		{Key: PreviousMonth, Totals: pointTotals(prevMonth, okMonth)},
		{Key: PreviousYear, Totals: pointTotals(prevYear, okYear)},
	}, visible, Options{})
}

// ForYear compares the totals of year with the rollup of the year before.
func ForYear(year string, totals core.Totals, allYears []series.YearPoint, visible Visible) Payload {
	var prev *core.Totals
	if p, ok := series.FindYear(allYears, core.ShiftYear(year, -1)); ok {
		t := p.Totals()
		prev = &t
	}
	return Compare(totals, []Period{{Key: PreviousYearTotal, Totals: prev}}, visible, Options{RequireVisible: true})
}

// ForHistory compares the latest stored year with the one before it.
func ForHistory(allYears []series.YearPoint, visible Visible) Payload {
	sorted := make([]series.YearPoint, len(allYears))
	copy(sorted, allYears)
	series.SortYears(sorted, series.KeyPeriod, series.Asc)

	var current core.Totals
	var prev *core.Totals
	if n := len(sorted); n >= 2 {
		current = sorted[n-1].Totals()
		t := sorted[n-2].Totals()
		prev = &t
	}
	return Compare(current, []Period{{Key: LatestVsPreviousYear, Totals: prev}}, visible, Options{RequireVisible: true})
}
