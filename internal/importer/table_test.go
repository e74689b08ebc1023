package importer

import (
	"errors"
	"testing"
)

func TestReadTableDelimiterAndHeader(t *testing.T) {
	tbl, err := ReadTable("Mes;Ingresos;Gastos;Saldo al cierre\n2024-01;1.500,00;800;3200\n", HistoryLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Delimiter != ';' {
		t.Fatalf("expected ';' delimiter, got %q", tbl.Delimiter)
	}
	if !tbl.HasHeader {
		t.Fatal("expected header to be detected")
	}
	want := Columns{Month: 0, Year: -1, Income: 1, Expense: 2, Balance: 3}
	if tbl.Columns != want {
		t.Fatalf("columns = %+v, want %+v", tbl.Columns, want)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0].Line != 2 {
		t.Fatalf("unexpected rows: %+v", tbl.Rows)
	}
	if got := tbl.Rows[0].Cell(1); got != "1.500,00" {
		t.Fatalf("income cell = %q", got)
	}
}

func TestReadTableReorderedHeader(t *testing.T) {
	tbl, err := ReadTable("saldo,gastos,ingresos,año,fecha\n1,2,3,2024,marzo", HistoryLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Columns{Month: 4, Year: 3, Income: 2, Expense: 1, Balance: 0}
	if tbl.Columns != want {
		t.Fatalf("columns = %+v, want %+v", tbl.Columns, want)
	}
	if tbl.Delimiter != ',' {
		t.Fatalf("expected ',' delimiter, got %q", tbl.Delimiter)
	}
}

func TestReadTablePositionalDefaults(t *testing.T) {
	tbl, err := ReadTable("1200.50,600,900", MonthLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.HasHeader || tbl.HasMonthColumn() {
		t.Fatalf("expected no header and no month column: %+v", tbl)
	}
	if tbl.Columns != MonthLayout.Defaults {
		t.Fatalf("columns = %+v", tbl.Columns)
	}
}

func TestReadTableQuotedCells(t *testing.T) {
	tbl, err := ReadTable(`"2024-02","1,500.00", "800","700"`, HistoryLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2024-02", "1,500.00", "800", "700"}
	got := tbl.Rows[0].Cells
	if len(got) != len(want) {
		t.Fatalf("cells = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadTableUnbalancedQuote(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"leading quote", `"2024-01;1;1;1`, []string{"2024-01", "1", "1", "1"}},
		{"quote mid row", `2024-01;"1,5;2;3`, []string{"2024-01", "1,5", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadTable("month;income;expense;balance\n"+tt.line, HistoryLayout)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := tbl.Rows[0].Cells
			if len(got) != len(tt.want) {
				t.Fatalf("cells = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("cell %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	snaps, err := ParseHistory("month;income;expense;balance\n\"2024-01;1;1;1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(snaps) != 1 || snaps[0].Month != "2024-01" || snaps[0].BalanceCents != 100 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
}

func TestReadTableSkipsBlankRowsKeepingLines(t *testing.T) {
	tbl, err := ReadTable("mes;ingresos;gastos;saldo\n\n;;;\n2024-01;1;2;3\r\n", HistoryLayout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(tbl.Rows))
	}
	// blank physical lines are dropped before numbering, the ";;;" row is not
	if tbl.Rows[0].Line != 3 {
		t.Fatalf("line = %d, want 3", tbl.Rows[0].Line)
	}
}

func TestReadTableErrors(t *testing.T) {
	if _, err := ReadTable(" \n\t\n", HistoryLayout); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := ReadTable("mes;ingresos;gastos\n2024-01;1;2", HistoryLayout); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if _, err := ReadTable("ingresos;gastos;saldo\n1;2;3", HistoryLayout); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("history without month column: expected ErrMissingColumns, got %v", err)
	}
	if _, err := ReadTable("ingresos;gastos;saldo\n1;2;3", MonthLayout); err != nil {
		t.Fatalf("month layout without month column: unexpected error %v", err)
	}
}
