package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedExtension is returned by Open for files that are neither
// .xls nor .xlsx.
var ErrUnsupportedExtension = errors.New("unsupported spreadsheet extension")

// Kind identifies the container format of a workbook.
type Kind int

const (
	KindXLSX Kind = iota
	KindXLS
)

func (k Kind) String() string {
	switch k {
	case KindXLSX:
		return "xlsx"
	case KindXLS:
		return "xls"
	default:
		return "unknown"
	}
}

// KindOf returns the container kind for path based on its extension.
func KindOf(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return KindXLSX, true
	case ".xls":
		return KindXLS, true
	default:
		return 0, false
	}
}

// Workbook holds the cell grid of the first worksheet of a file.
type Workbook struct {
	Path string
	Kind Kind
	rows [][]string
}

// Open reads the first worksheet of the workbook at path.
func Open(path string) (*Workbook, error) {
	kind, ok := KindOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))
	}

	var (
		rows [][]string
		err  error
	)
	switch kind {
	case KindXLSX:
		rows, err = readXLSX(path)
	case KindXLS:
		rows, err = readXLS(path)
	}
	if err != nil {
		return nil, err
	}

	return &Workbook{Path: path, Kind: kind, rows: rows}, nil
}

// FromRows builds a Workbook from an in-memory grid.
func FromRows(path string, rows [][]string) *Workbook {
	kind, _ := KindOf(path)
	grid := make([][]string, len(rows))
	for i, r := range rows {
		grid[i] = trimTrailing(append([]string(nil), r...))
	}
	return &Workbook{Path: path, Kind: kind, rows: grid}
}

// Rows returns the raw grid. The slice must not be modified.
func (w *Workbook) Rows() [][]string {
	return w.rows
}

// Table interprets the grid using the row at headerRow (0-based) as the
// column header row. Rows above the header are discarded; blank rows below
// it are skipped.
func (w *Workbook) Table(headerRow int) (*Table, error) {
	if headerRow < 0 || headerRow >= len(w.rows) {
		return nil, fmt.Errorf("header row %d out of range: sheet has %d rows", headerRow, len(w.rows))
	}

	header := w.rows[headerRow]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var data [][]string
	for _, r := range w.rows[headerRow+1:] {
		if isBlank(r) {
			continue
		}
		data = append(data, r)
	}

	return NewTable(columns, data), nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheets[0], err)
	}
	for i := range rows {
		rows[i] = trimTrailing(rows[i])
	}
	return rows, nil
}

// readXLS walks the BIFF row records of the first sheet. The decoder panics
// on some truncated containers, so panics are turned into errors here.
func readXLS(path string) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = fmt.Errorf("decode xls %s: %v", filepath.Base(path), r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls %s: %w", filepath.Base(path), err)
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("xls %s has no sheets", filepath.Base(path))
	}

	rows = make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		last := row.LastCol()
		if last < 0 {
			last = 0
		}
		cells := make([]string, last)
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, trimTrailing(cells))
	}
	return rows, nil
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
