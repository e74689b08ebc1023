package series

import (
	"testing"

	"fintrack/internal/core"
)

func snap(month string, income, expense, balance int64) core.Snapshot {
	return core.Snapshot{Month: month, IncomeCents: income, ExpenseCents: expense, BalanceCents: balance}
}

func TestBuildYearSeriesAlwaysTwelvePoints(t *testing.T) {
	stored := []core.Snapshot{
		snap("2024-03", 1000, 400, 5000),
		snap("2024-11", 2000, 2500, 4500),
		snap("2023-03", 9, 9, 9),
	}
	for _, tc := range []struct {
		year  string
		input []core.Snapshot
	}{
		{"2024", stored},
		{"2024", nil},
		{"2022", stored},
	} {
		got := BuildYearSeries(tc.year, tc.input)
		if len(got) != 12 {
			t.Fatalf("year %s: expected 12 points, got %d", tc.year, len(got))
		}
		for i, p := range got {
			want := core.FormatMonthKey(mustAtoi(t, tc.year), i+1)
			if p.Month != want {
				t.Fatalf("point %d month = %q, want %q", i, p.Month, want)
			}
			if p.BenefitCents != p.IncomeCents-p.ExpenseCents {
				t.Fatalf("point %s benefit %d != income-expense", p.Month, p.BenefitCents)
			}
		}
	}

	got := BuildYearSeries("2024", stored)
	if got[2].IncomeCents != 1000 || got[2].BenefitCents != 600 || got[2].BalanceCents != 5000 {
		t.Fatalf("march = %+v", got[2])
	}
	if got[10].BenefitCents != -500 {
		t.Fatalf("november benefit = %d", got[10].BenefitCents)
	}
	if !got[0].Totals().IsZero() {
		t.Fatalf("january should be zero-filled: %+v", got[0])
	}
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	y, _, err := core.ParseMonthKey(s + "-01")
	if err != nil {
		t.Fatalf("bad year %q: %v", s, err)
	}
	return y
}

func TestBuildAllYearsBalanceFromLatestMonth(t *testing.T) {
	stored := []core.Snapshot{
		snap("2023-11", 100, 10, 100),
		snap("2023-12", 200, 20, 200),
		snap("2023-06", 50, 5, 50),
	}
	got := BuildAllYears(stored)
	if len(got) != 1 {
		t.Fatalf("expected one year, got %d", len(got))
	}
	p := got[0]
	if p.Year != "2023" || p.BalanceCents != 200 {
		t.Fatalf("unexpected point %+v", p)
	}
	if p.IncomeCents != 350 || p.ExpenseCents != 35 || p.BenefitCents != 315 {
		t.Fatalf("flows not summed: %+v", p)
	}
}

func TestBuildAllYearsOrdersYears(t *testing.T) {
	got := BuildAllYears([]core.Snapshot{
		snap("2025-01", 1, 0, 1),
		snap("2023-05", 1, 0, 3),
		snap("2024-02", 1, 0, 2),
	})
	if len(got) != 3 || got[0].Year != "2023" || got[1].Year != "2024" || got[2].Year != "2025" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(BuildAllYears(nil)) != 0 {
		t.Fatal("expected no points for empty input")
	}
}

func TestYearTotals(t *testing.T) {
	series := BuildYearSeries("2024", []core.Snapshot{
		snap("2024-01", 100, 50, 1000),
		snap("2024-05", 200, 300, 900),
	})
	got := YearTotals(series)
	want := core.Totals{IncomeCents: 300, ExpenseCents: 350, BalanceCents: 900, BenefitCents: -50}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !YearTotals(BuildYearSeries("2030", nil)).IsZero() {
		t.Fatal("expected zero totals for an empty year")
	}
}

func TestPreviousDecemberBalanceAndLookup(t *testing.T) {
	stored := []core.Snapshot{snap("2023-12", 0, 0, 777), snap("2024-02", 5, 1, 10)}
	if got := PreviousDecemberBalance("2024", stored); got != 777 {
		t.Fatalf("got %d, want 777", got)
	}
	if got := PreviousDecemberBalance("2025", stored); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	p, ok := Lookup("2024-02", stored)
	if !ok || p.BenefitCents != 4 {
		t.Fatalf("lookup = %+v, %v", p, ok)
	}
	if p, ok := Lookup("2024-03", stored); ok || p.Month != "2024-03" {
		t.Fatalf("missing lookup = %+v, %v", p, ok)
	}
}

func TestAvailableYearsAndHasData(t *testing.T) {
	stored := []core.Snapshot{snap("2024-01", 1, 1, 1), snap("2022-03", 1, 1, 1), snap("2024-02", 1, 1, 1)}
	got := AvailableYears(stored, "2026", "2022")
	want := []string{"2022", "2024", "2026"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if HasData(BuildYearSeries("2030", stored)) {
		t.Fatal("expected no data")
	}
	if !HasData(BuildYearSeries("2024", stored)) {
		t.Fatal("expected data")
	}
	if !HasYearData(BuildAllYears(stored)) {
		t.Fatal("expected year data")
	}
	zero := []core.Snapshot{snap("2023-05", 0, 0, 0), snap("2024-01", 0, 0, 0)}
	if years := BuildAllYears(zero); len(years) != 2 || HasYearData(years) {
		t.Fatalf("zero rows must not count as data: %+v", years)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		cur, prev int64
		want      Trend
	}{
		{10, 5, TrendUp},
		{5, 10, TrendDown},
		{7, 7, TrendFlat},
		{-1, 0, TrendDown},
	}
	for _, tc := range cases {
		if got := Classify(tc.cur, tc.prev); got != tc.want {
			t.Errorf("Classify(%d, %d) = %s, want %s", tc.cur, tc.prev, got, tc.want)
		}
	}
}

func TestYearTrendsUsesPreviousDecember(t *testing.T) {
	series := BuildYearSeries("2024", []core.Snapshot{snap("2024-01", 0, 0, 500), snap("2024-02", 0, 0, 500)})
	rows := YearTrends(series, 600)
	if rows[0].Trend != TrendDown {
		t.Fatalf("january trend = %s, want down", rows[0].Trend)
	}
	if rows[1].Trend != TrendFlat {
		t.Fatalf("february trend = %s, want flat", rows[1].Trend)
	}
	if rows[2].Trend != TrendDown {
		t.Fatalf("march trend = %s, want down (zero-filled)", rows[2].Trend)
	}
}

func TestAllYearsTrendsFirstIsFlat(t *testing.T) {
	rows := AllYearsTrends([]YearPoint{{Year: "2022", BalanceCents: 100}, {Year: "2023", BalanceCents: 300}, {Year: "2024", BalanceCents: 200}})
	want := []Trend{TrendFlat, TrendUp, TrendDown}
	for i, r := range rows {
		if r.Trend != want[i] {
			t.Errorf("row %d trend = %s, want %s", i, r.Trend, want[i])
		}
	}
}

func TestSortIsStable(t *testing.T) {
	years := []YearPoint{
		{Year: "2020", IncomeCents: 5, BalanceCents: 1},
		{Year: "2020", IncomeCents: 5, BalanceCents: 2},
		{Year: "2019", IncomeCents: 1, BalanceCents: 3},
	}
	SortYears(years, KeyIncome, Asc)
	if years[0].Year != "2019" || years[1].BalanceCents != 1 || years[2].BalanceCents != 2 {
		t.Fatalf("asc not stable: %+v", years)
	}
	SortYears(years, KeyIncome, Desc)
	if years[0].BalanceCents != 1 || years[1].BalanceCents != 2 || years[2].Year != "2019" {
		t.Fatalf("desc not stable: %+v", years)
	}
}

func TestSortPointsByKey(t *testing.T) {
	points := BuildYearSeries("2024", []core.Snapshot{
		snap("2024-01", 300, 100, 10),
		snap("2024-02", 100, 50, 30),
		snap("2024-03", 200, 400, 20),
	})[:3]

	SortPoints(points, KeyPeriod, Desc)
	if points[0].Month != "2024-03" || points[2].Month != "2024-01" {
		t.Fatalf("period desc: %+v", points)
	}
	SortPoints(points, KeyBenefit, Asc)
	if points[0].Month != "2024-03" || points[2].Month != "2024-01" {
		t.Fatalf("benefit asc: %+v", points)
	}
	SortPoints(points, KeyBalance, Desc)
	if points[0].Month != "2024-02" {
		t.Fatalf("balance desc: %+v", points)
	}
}

func TestSortMonthRowsKeepsTrend(t *testing.T) {
	rows := YearTrends(BuildYearSeries("2024", []core.Snapshot{snap("2024-01", 0, 0, 100), snap("2024-02", 0, 0, 50)}), 0)
	SortMonthRows(rows, KeyBalance, Desc)
	if rows[0].Month != "2024-01" || rows[0].Trend != TrendUp {
		t.Fatalf("first row = %+v", rows[0])
	}
	if rows[1].Month != "2024-02" || rows[1].Trend != TrendDown {
		t.Fatalf("second row = %+v", rows[1])
	}
}

func TestParseKeyAndDirection(t *testing.T) {
	for in, want := range map[string]Key{"": KeyPeriod, "month": KeyPeriod, "Year": KeyPeriod, "income": KeyIncome, "benefit": KeyBenefit} {
		if got, ok := ParseKey(in); !ok || got != want {
			t.Errorf("ParseKey(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseKey("profit"); ok {
		t.Error("expected unknown key to be rejected")
	}
	if d, ok := ParseDirection("DESC"); !ok || d != Desc {
		t.Errorf("ParseDirection(DESC) = %q, %v", d, ok)
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Error("expected unknown direction to be rejected")
	}
}
