package core

// validation.go resolves partner header rows to canonical columns.
//
// Validation happens at two levels:
//  1. Header location: for layouts with decoy title rows, find the row that
//     actually carries the column names
//  2. Column mapping: normalize header text, resolve synonyms and verify
//     that every required column is present
//
// Missing columns are always reported together so a user can fix a file
// in one pass.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/settlement/internal/sheet"
)

// DefaultMinHeaderColumns is the column count a header candidate must
// exceed to be accepted.
const DefaultMinHeaderColumns = 3

// TableReader interprets a source using a given row as the header.
// Satisfied by *sheet.Workbook.
type TableReader interface {
	Table(headerRow int) (*sheet.Table, error)
}

// LocateHeader tries each header offset in order and returns the first
// table whose header row has more than minColumns named columns. The order
// is a firm preference: later offsets are only tried when earlier ones fail.
func LocateHeader(r TableReader, offsets []int, minColumns int) (*sheet.Table, error) {
	var lastErr error
	for _, off := range offsets {
		t, err := r.Table(off)
		if err != nil {
			lastErr = err
			continue
		}
		if n := t.NonEmptyColumns(); n <= minColumns {
			lastErr = fmt.Errorf("header row %d has %d columns, need more than %d", off, n, minColumns)
			continue
		}
		return t, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no header offsets to try")
	}
	return nil, &HeaderError{Offsets: offsets, Err: lastErr}
}

// Field names a canonical column an adapter wants to read.
type Field struct {
	Name     string
	Required bool
}

// Synonyms maps a canonical column name to alternate spellings seen in
// partner files.
type Synonyms map[string][]string

// ResolvedColumn is a matched header: the actual column name and its position.
type ResolvedColumn struct {
	Name  string
	Index int
}

// ColumnMap maps canonical column names to resolved columns.
type ColumnMap map[string]ResolvedColumn

// Actual returns the header text the canonical name resolved to.
func (m ColumnMap) Actual(canonical string) (string, bool) {
	c, ok := m[canonical]
	return c.Name, ok
}

// Has reports whether the canonical column was resolved.
func (m ColumnMap) Has(canonical string) bool {
	_, ok := m[canonical]
	return ok
}

// Value returns the cell of row for the canonical column, or "" when the
// column is unmapped or the row is short.
func (m ColumnMap) Value(row []string, canonical string) string {
	c, ok := m[canonical]
	if !ok {
		return ""
	}
	return sheet.Cell(row, c.Index)
}

var headerNameReplacer = strings.NewReplacer(
	"\r", "",
	"\n", "",
	"\t", "",
	" ", "",
	"\u00a0", "",
	"\u3000", "",
)

// NormalizeColumnName strips embedded newlines and spaces from a header.
// Spreadsheet headers often wrap across lines ("합계\n금액").
func NormalizeColumnName(name string) string {
	return headerNameReplacer.Replace(name)
}

// MapColumns normalizes the table's header names in place, then resolves
// each field to a column, falling back to synonyms. The canonical spelling
// wins when both it and an alternate are present. Every unresolved
// required field is listed in the returned *MissingColumnsError.
func MapColumns(t *sheet.Table, fields []Field, syn Synonyms) (ColumnMap, error) {
	t.RenameColumns(NormalizeColumnName)
	return resolveColumns(t, fields, syn, NormalizeColumnName)
}

// ExactColumns resolves fields by exact header text, with no name
// normalization and no synonyms.
func ExactColumns(t *sheet.Table, fields []Field) (ColumnMap, error) {
	return resolveColumns(t, fields, nil, func(s string) string { return s })
}

func resolveColumns(t *sheet.Table, fields []Field, syn Synonyms, normalize func(string) string) (ColumnMap, error) {
	m := make(ColumnMap, len(fields))
	var missing []string

	for _, f := range fields {
		candidates := append([]string{f.Name}, syn[f.Name]...)
		found := false
		for _, c := range candidates {
			name := normalize(c)
			if idx, ok := t.Index(name); ok {
				m[f.Name] = ResolvedColumn{Name: name, Index: idx}
				found = true
				break
			}
		}
		if !found && f.Required {
			missing = append(missing, f.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return m, nil
}
