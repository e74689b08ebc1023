package series

import "fintrack/internal/core"

// Trend classifies a closing balance against the preceding one.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Classify compares current with previous.
func Classify(current, previous int64) Trend {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	}
	return TrendFlat
}

// MonthRow is a year-series point with its trend.
type MonthRow struct {
	core.Point
	Trend Trend `json:"trend"`
}

// YearRow is an all-years point with its trend.
type YearRow struct {
	YearPoint
	Trend Trend `json:"trend"`
}

// YearTrends classifies every month of a chronological year series against the
// month before; January compares with previousBalance, usually December of the
// prior year.
func YearTrends(points []core.Point, previousBalance int64) []MonthRow {
	rows := make([]MonthRow, len(points))
	prev := previousBalance
	for i, p := range points {
		rows[i] = MonthRow{Point: p, Trend: Classify(p.BalanceCents, prev)}
		prev = p.BalanceCents
	}
	return rows
}

// AllYearsTrends classifies every year against the year before. The first year
// compares with its own balance and is therefore always flat.
func AllYearsTrends(points []YearPoint) []YearRow {
	rows := make([]YearRow, len(points))
	for i, p := range points {
		prev := p.BalanceCents
		if i > 0 {
			prev = points[i-1].BalanceCents
		}
		rows[i] = YearRow{YearPoint: p, Trend: Classify(p.BalanceCents, prev)}
	}
	return rows
}
