package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func writeSnapshots(w io.Writer, snaps []core.Snapshot) {
	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tBALANCE\tBENEFIT\t")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			s.Month, amount(s.IncomeCents), amount(s.ExpenseCents), amount(s.BalanceCents), amount(s.Benefit()))
	}
	_ = tw.Flush()
}

func writeYearReport(w io.Writer, view *services.YearView) {
	fmt.Fprintf(w, "Year %s\n\n", view.Year)
	if !view.HasData {
		fmt.Fprintln(w, "no data for this year")
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSE\tBALANCE\tBENEFIT\tTREND\t")
	for _, r := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Month, amount(r.IncomeCents), amount(r.ExpenseCents), amount(r.BalanceCents), amount(r.BenefitCents), r.Trend)
	}
	t := view.Totals
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t%s\t\t\n",
		amount(t.IncomeCents), amount(t.ExpenseCents), amount(t.BalanceCents), amount(t.BenefitCents))
	_ = tw.Flush()

	if len(view.AvailableYears) > 0 {
		fmt.Fprintf(w, "\nyears: %s\n", strings.Join(view.AvailableYears, ", "))
	}
	writeInsights(w, view.Insights)
}

func writeHistoryReport(w io.Writer, view *services.HistoryView) {
	fmt.Fprintln(w, "History")
	fmt.Fprintln(w)
	if !view.HasData {
		fmt.Fprintln(w, "no data stored")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "YEAR\tINCOME\tEXPENSE\tBALANCE\tBENEFIT\tTREND\t")
	for _, r := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Year, amount(r.IncomeCents), amount(r.ExpenseCents), amount(r.BalanceCents), amount(r.BenefitCents), r.Trend)
	}
	_ = tw.Flush()
	writeInsights(w, view.Insights)
}

func writeInsights(w io.Writer, p insights.Payload) {
	if len(p.Comparisons) == 0 {
		return
	}
	fmt.Fprintln(w, "\nInsights")
	for _, c := range p.Comparisons {
		if !c.HasData {
			fmt.Fprintf(w, "  %s: no data\n", c.Key)
			continue
		}
		fmt.Fprintf(w, "  %s:\n", c.Key)
		for _, d := range c.Deltas {
			pct := "n/a"
			if d.PercentChange != nil {
				pct = fmt.Sprintf("%+.1f%%", *d.PercentChange)
			}
			sign := ""
			if d.DeltaCents > 0 {
				sign = "+"
			}
			fmt.Fprintf(w, "    %-8s %s%s (%s)\n", d.Metric, sign, amount(d.DeltaCents), pct)
		}
	}
}
