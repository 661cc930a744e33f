package sheet

import "strings"

// Table is a grid of text cells addressed by a header row.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table from column names and data rows. When a column
// name repeats, lookups by name resolve to its first occurrence.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if c == "" {
			continue
		}
		if _, seen := t.index[c]; !seen {
			t.index[c] = i
		}
	}
}

// Index returns the position of the column named exactly name.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// RenameColumns rewrites every column name with fn and rebuilds the
// name index.
func (t *Table) RenameColumns(fn func(string) string) {
	for i, c := range t.Columns {
		t.Columns[i] = fn(c)
	}
	t.reindex()
}

// NonEmptyColumns counts header cells that carry a name.
func (t *Table) NonEmptyColumns() int {
	n := 0
	for _, c := range t.Columns {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// Cell returns the cell at col in row, or "" when the row is short.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
