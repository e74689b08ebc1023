// Package export renders stored snapshots as CSV or as a SQL dump.
package export

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	headersES = []string{"mes", "ingresos", "gastos", "saldo al cierre"}
	headersEN = []string{"month", "income", "expenses", "closing balance"}
)

func spanish(locale string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "es")
}

// Rows returns the localized header followed by one row per snapshot, with
// amounts rendered as decimals. Spanish locales use a decimal comma.
func Rows(snapshots []core.Snapshot, locale string) [][]string {
	headers, sep := headersEN, byte('.')
	if spanish(locale) {
		headers, sep = headersES, ','
	}
	rows := make([][]string, 0, len(snapshots)+1)
	rows = append(rows, append([]string(nil), headers...))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Month,
			core.FormatDecimal(s.IncomeCents, sep),
			core.FormatDecimal(s.ExpenseCents, sep),
			core.FormatDecimal(s.BalanceCents, sep),
		})
	}
	return rows
}

// CSV renders Rows with ';' separators. The output re-imports as history.
func CSV(snapshots []core.Snapshot, locale string) string {
	rows := Rows(snapshots, locale)
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = strings.Join(r, ";")
	}
	return strings.Join(lines, "\n")
}

// SQLDump renders the table schema followed by one INSERT per snapshot inside
// a transaction. The transaction block is omitted when there is nothing to insert.
func SQLDump(snapshots []core.Snapshot) string {
	var lines []string
	if schema := storage.Schema(); schema != "" {
		lines = append(lines, schema)
	}
	if len(snapshots) > 0 {
		lines = append(lines, "BEGIN TRANSACTION;")
		for _, s := range snapshots {
			lines = append(lines, fmt.Sprintf(
				"INSERT INTO monthly_snapshots (month, income_cents, expense_cents, balance_cents) VALUES ('%s', %d, %d, %d);",
				escapeSQL(s.Month), s.IncomeCents, s.ExpenseCents, s.BalanceCents))
		}
		lines = append(lines, "COMMIT;")
	}
	return strings.Join(lines, "\n")
}

func escapeSQL(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// FileName returns the backup file name for a format, e.g. "fintrack-snapshots.csv".
func FileName(ext string) string {
	return "fintrack-snapshots." + strings.TrimPrefix(ext, ".")
}
