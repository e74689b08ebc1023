package importer

import (
	"encoding/csv"
	"regexp"
	"strings"
)

// Column aliases, already normalized. A header cell matches an alias when it
// equals it or contains it.
var (
	monthAliases   = []string{"month", "mes", "fecha"}
	yearAliases    = []string{"year", "ano"}
	incomeAliases  = []string{"income", "ingresos"}
	expenseAliases = []string{"expense", "gastos"}
	balanceAliases = []string{"balance", "saldo", "acumulacion", "saldo al cierre", "saldo cierre"}

	allAliases = [][]string{monthAliases, yearAliases, incomeAliases, expenseAliases, balanceAliases}
)

var lineSplitRe = regexp.MustCompile(`\r?\n`)

// Columns holds resolved column indexes; -1 means absent.
type Columns struct {
	Month   int
	Year    int
	Income  int
	Expense int
	Balance int
}

// Layout describes the positional defaults used when the text has no header.
type Layout struct {
	Defaults Columns
	// MonthRequired makes a missing month alias a MissingColumns failure.
	MonthRequired bool
}

var (
	// HistoryLayout: month, income, expense, balance.
	HistoryLayout = Layout{
		Defaults:      Columns{Month: 0, Year: -1, Income: 1, Expense: 2, Balance: 3},
		MonthRequired: true,
	}
	// MonthLayout: income, expense, balance. The month comes from the caller.
	MonthLayout = Layout{
		Defaults:      Columns{Month: -1, Year: -1, Income: 0, Expense: 1, Balance: 2},
		MonthRequired: false,
	}
)

// Row is one data row and its 1-based line among the non-blank input lines.
type Row struct {
	Line  int
	Cells []string
}

// Cell returns the cell at idx, or "" when idx is absent or out of range.
func (r Row) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}
	return r.Cells[idx]
}

func (r Row) blank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Table is the result of reading raw import text.
type Table struct {
	Delimiter rune
	HasHeader bool
	Columns   Columns
	Rows      []Row
}

// HasMonthColumn reports whether rows carry their own month.
func (t *Table) HasMonthColumn() bool {
	return t.Columns.Month >= 0
}

// ReadTable splits text into trimmed non-blank lines, detects the delimiter
// (';' when any line has one, ',' otherwise), detects an optional header row
// and resolves the column indexes.
func ReadTable(text string, layout Layout) (*Table, error) {
	var lines []string
	for _, l := range lineSplitRe.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	delim := ','
	for _, l := range lines {
		if strings.Contains(l, ";") {
			delim = ';'
			break
		}
	}

	rows := make([]Row, len(lines))
	for i, l := range lines {
		rows[i] = Row{Line: i + 1, Cells: splitCells(l, delim)}
	}

	t := &Table{Delimiter: delim, Columns: layout.Defaults}
	header := make([]string, len(rows[0].Cells))
	for i, c := range rows[0].Cells {
		header[i] = Normalize(c)
	}
	t.HasHeader = isHeader(header)

	start := 0
	if t.HasHeader {
		start = 1
		t.Columns = Columns{
			Month:   findColumn(header, monthAliases),
			Year:    findColumn(header, yearAliases),
			Income:  findColumn(header, incomeAliases),
			Expense: findColumn(header, expenseAliases),
			Balance: findColumn(header, balanceAliases),
		}
		c := t.Columns
		if c.Income < 0 || c.Expense < 0 || c.Balance < 0 || (layout.MonthRequired && c.Month < 0) {
			return nil, ErrMissingColumns
		}
	}

	for _, r := range rows[start:] {
		if r.blank() {
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}

// splitCells reads one line with encoding/csv so quoted cells may hold the
// delimiter. Lines csv rejects, or with an unbalanced quote that would swallow
// the rest of the line, are split plainly with stray quotes removed.
func splitCells(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	cells, err := r.Read()
	if err != nil || strings.Count(line, `"`)%2 == 1 {
		cells = strings.Split(line, string(delim))
		for i, c := range cells {
			cells[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(c), `"`))
		}
		return cells
	}
	for i, c := range cells {
		cells[i] = unquote(strings.TrimSpace(c))
	}
	return cells
}

// unquote strips one matching pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func isHeader(cells []string) bool {
	for _, cell := range cells {
		for _, aliases := range allAliases {
			if matchAlias(cell, aliases) {
				return true
			}
		}
	}
	return false
}

func findColumn(header []string, aliases []string) int {
	for i, cell := range header {
		if matchAlias(cell, aliases) {
			return i
		}
	}
	return -1
}

func matchAlias(cell string, aliases []string) bool {
	if cell == "" {
		return false
	}
	for _, a := range aliases {
		if cell == a || strings.Contains(cell, a) {
			return true
		}
	}
	return false
}
