package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/series"
)

// MonthView is the summary of one month with its insights.
type MonthView struct {
	Month          string           `json:"month"`
	Summary        core.Point       `json:"summary"`
	HasData        bool             `json:"hasData"`
	IsCurrentMonth bool             `json:"isCurrentMonth"`
	Insights       insights.Payload `json:"insights"`
}

// YearView is the 12 month series of a year with totals, trends and insights.
type YearView struct {
	Year           string            `json:"year"`
	Rows           []series.MonthRow `json:"rows"`
	Totals         core.Totals       `json:"totals"`
	HasData        bool              `json:"hasData"`
	AvailableYears []string          `json:"availableYears"`
	Insights       insights.Payload  `json:"insights"`
}

// HistoryView is the per-year rollup of everything stored.
type HistoryView struct {
	Rows     []series.YearRow `json:"rows"`
	HasData  bool             `json:"hasData"`
	Insights insights.Payload `json:"insights"`
}

// SortOptions select the row order of a view.
type SortOptions struct {
	Key       series.Key
	Direction series.Direction
}

// MonthView derives the month summary and its comparisons.
func (s *SnapshotService) MonthView(ctx context.Context, month string, visible insights.Visible) (*MonthView, error) {
	if _, _, err := core.ParseMonthKey(month); err != nil {
		return nil, err
	}
	snap, found, all, err := s.loadMonth(ctx, month)
	if err != nil {
		return nil, err
	}

	summary := core.Point{Month: month}
	if found {
		summary = core.PointFromSnapshot(snap)
	}
	current := month == s.CurrentMonth()
	return &MonthView{
		Month:          month,
		Summary:        summary,
		HasData:        !summary.Totals().IsZero(),
		IsCurrentMonth: current,
		Insights:       insights.ForMonth(month, all, visible, current),
	}, nil
}

// YearView derives the year series. Trends are computed chronologically and
// travel with their rows through the sort.
func (s *SnapshotService) YearView(ctx context.Context, year string, sort SortOptions, visible insights.Visible) (*YearView, error) {
	if err := core.ValidateYear(year); err != nil {
		return nil, err
	}
	all, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	points := series.BuildYearSeries(year, all)
	totals := series.YearTotals(points)
	rows := series.YearTrends(points, series.PreviousDecemberBalance(year, all))
	series.SortMonthRows(rows, sort.Key, sort.Direction)

	return &YearView{
		Year:           year,
		Rows:           rows,
		Totals:         totals,
		HasData:        series.HasData(points),
		AvailableYears: series.AvailableYears(all, year),
		Insights:       insights.ForYear(year, totals, series.BuildAllYears(all), visible),
	}, nil
}

// HistoryView derives the all-years rollup.
func (s *SnapshotService) HistoryView(ctx context.Context, sort SortOptions, visible insights.Visible) (*HistoryView, error) {
	all, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}

	years := series.BuildAllYears(all)
	rows := series.AllYearsTrends(years)
	series.SortYearRows(rows, sort.Key, sort.Direction)

	return &HistoryView{
		Rows:     rows,
		HasData:  series.HasYearData(years),
		Insights: insights.ForHistory(years, visible),
	}, nil
}
