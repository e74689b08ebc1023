package insights

import (
	"math"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/series"
)

func TestNewDelta(t *testing.T) {
	cases := []struct {
		name   string
		cur    int64
		prev   int64
		delta  int64
		pct    float64
		nilPct bool
	}{
		{"growth", 150, 100, 50, 50, false},
		{"drop", 50, 100, -50, -50, false},
		{"negative base", 0, -200, 200, 100, false},
		{"zero base", 500, 0, 500, 0, true},
		{"both zero", 0, 0, 0, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDelta(MetricIncome, tc.cur, tc.prev)
			if d.DeltaCents != tc.delta {
				t.Fatalf("delta = %d, want %d", d.DeltaCents, tc.delta)
			}
			if tc.nilPct {
				if d.PercentChange != nil {
					t.Fatalf("expected nil percent, got %v", *d.PercentChange)
				}
				return
			}
			if d.PercentChange == nil || math.Abs(*d.PercentChange-tc.pct) > 1e-9 {
				t.Fatalf("percent = %v, want %v", d.PercentChange, tc.pct)
			}
		})
	}
}

func TestParseVisible(t *testing.T) {
	if v := ParseVisible(""); len(v.keys()) != 4 {
		t.Fatalf("empty should enable all, got %v", v)
	}
	v := ParseVisible(" Income, benefit,unknown")
	keys := v.keys()
	if len(keys) != 2 || keys[0] != MetricIncome || keys[1] != MetricBenefit {
		t.Fatalf("unexpected keys %v", keys)
	}
	if v := ParseVisible("none"); len(v.keys()) != 0 {
		t.Fatalf("none should disable all, got %v", v)
	}
}

func TestCompareMarksMissingPeriod(t *testing.T) {
	prev := core.Totals{IncomeCents: 100}
	p := Compare(core.Totals{IncomeCents: 150}, []Period{
		{Key: "a", Totals: &prev},
		{Key: "b"},
	}, Visible{MetricIncome: true}, Options{})

	if len(p.Comparisons) != 2 {
		t.Fatalf("expected 2 comparisons, got %d", len(p.Comparisons))
	}
	if !p.Comparisons[0].HasData || len(p.Comparisons[0].Deltas) != 1 {
		t.Fatalf("first comparison = %+v", p.Comparisons[0])
	}
	if p.Comparisons[1].HasData || len(p.Comparisons[1].Deltas) != 0 {
		t.Fatalf("second comparison = %+v", p.Comparisons[1])
	}
	if !p.HasAnyData {
		t.Fatal("expected HasAnyData")
	}
}

func TestCompareHiddenMetrics(t *testing.T) {
	prev := core.Totals{IncomeCents: 100}
	periods := []Period{{Key: "a", Totals: &prev}}

	p := Compare(core.Totals{}, periods, Visible{}, Options{})
	if !p.Comparisons[0].HasData || p.HasAnyData {
		t.Fatalf("month-style comparison with nothing visible: %+v", p)
	}
	p = Compare(core.Totals{}, periods, Visible{}, Options{RequireVisible: true})
	if p.Comparisons[0].HasData || p.HasAnyData {
		t.Fatalf("year-style comparison with nothing visible: %+v", p)
	}
}

func TestForMonth(t *testing.T) {
	stored := []core.Snapshot{
		{Month: "2023-03", IncomeCents: 1000, ExpenseCents: 500, BalanceCents: 2000},
		{Month: "2024-02", IncomeCents: 1500, ExpenseCents: 500, BalanceCents: 3000},
		{Month: "2024-03", IncomeCents: 3000, ExpenseCents: 1000, BalanceCents: 5000},
	}
	p := ForMonth("2024-03", stored, AllVisible(), false)
	if len(p.Comparisons) != 2 || p.Comparisons[0].Key != PreviousMonth || p.Comparisons[1].Key != PreviousYear {
		t.Fatalf("unexpected comparisons %+v", p.Comparisons)
	}
	income := p.Comparisons[0].Deltas[0]
	if income.Metric != MetricIncome || income.DeltaCents != 1500 || *income.PercentChange != 100 {
		t.Fatalf("previous month income delta = %+v", income)
	}
	benefit := p.Comparisons[1].Deltas[3]
	if benefit.Metric != MetricBenefit || benefit.CurrentCents != 2000 || benefit.PreviousCents != 500 {
		t.Fatalf("previous year benefit delta = %+v", benefit)
	}

	p = ForMonth("2024-05", stored, AllVisible(), false)
	if p.HasAnyData || p.Comparisons[0].HasData || p.Comparisons[1].HasData {
		t.Fatalf("expected no comparison data for 2024-05: %+v", p)
	}

	p = ForMonth("2024-05", stored, AllVisible(), true)
	if len(p.Comparisons) != 0 || p.HasAnyData {
		t.Fatalf("expected empty payload for empty current month: %+v", p)
	}
}

func TestForMonthAcrossYearBoundary(t *testing.T) {
	stored := []core.Snapshot{
		{Month: "2023-12", BalanceCents: 100},
		{Month: "2024-01", BalanceCents: 150},
	}
	p := ForMonth("2024-01", stored, Visible{MetricBalance: true}, false)
	d := p.Comparisons[0].Deltas
	if len(d) != 1 || d[0].DeltaCents != 50 {
		t.Fatalf("unexpected deltas %+v", d)
	}
}

func TestForYear(t *testing.T) {
	stored := []core.Snapshot{
		{Month: "2023-06", IncomeCents: 100, ExpenseCents: 50, BalanceCents: 400},
		{Month: "2024-02", IncomeCents: 300, ExpenseCents: 100, BalanceCents: 600},
	}
	all := series.BuildAllYears(stored)
	totals := series.YearTotals(series.BuildYearSeries("2024", stored))

	p := ForYear("2024", totals, all, Visible{MetricBalance: true})
	c := p.Comparisons[0]
	if c.Key != PreviousYearTotal || !c.HasData || len(c.Deltas) != 1 || c.Deltas[0].DeltaCents != 200 {
		t.Fatalf("unexpected comparison %+v", c)
	}

	p = ForYear("2023", series.YearTotals(series.BuildYearSeries("2023", stored)), all, AllVisible())
	if p.Comparisons[0].HasData || p.HasAnyData {
		t.Fatalf("2022 is not stored, expected no data: %+v", p)
	}
}

func TestForHistory(t *testing.T) {
	all := []series.YearPoint{
		{Year: "2024", IncomeCents: 300},
		{Year: "2022", IncomeCents: 50},
		{Year: "2023", IncomeCents: 200},
	}
	p := ForHistory(all, Visible{MetricIncome: true})
	c := p.Comparisons[0]
	if c.Key != LatestVsPreviousYear || !c.HasData || c.Deltas[0].DeltaCents != 100 {
		t.Fatalf("unexpected comparison %+v", c)
	}
	if all[0].Year != "2024" {
		t.Fatal("input must not be reordered")
	}

	p = ForHistory(all[:1], AllVisible())
	if p.Comparisons[0].HasData || p.HasAnyData {
		t.Fatalf("single year should have no comparison: %+v", p)
	}
}
