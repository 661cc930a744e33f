package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// utf8BOM lets spreadsheet programs detect UTF-8 in the CSV export.
const utf8BOM = "\xEF\xBB\xBF"

// ExportSheetName is the worksheet name of the XLSX export.
const ExportSheetName = "정산"

// ExportKind selects the export encoding.
type ExportKind int

const (
	ExportXLSX ExportKind = iota
	ExportCSV
)

// ExportKindFor chooses CSV for a .csv path and XLSX for anything else.
func ExportKindFor(path string) ExportKind {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ExportCSV
	}
	return ExportXLSX
}

// Extension returns the file extension including the dot.
func (k ExportKind) Extension() string {
	if k == ExportCSV {
		return ".csv"
	}
	return ".xlsx"
}

// ContentType returns the MIME type of the encoding.
func (k ExportKind) ContentType() string {
	if k == ExportCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// DefaultExportName returns the timestamped report name, e.g.
// Settlement_20240131_094500.xlsx.
func DefaultExportName(t time.Time) string {
	return "Settlement_" + t.Format("20060102_150405") + ".xlsx"
}

// WriteCSV writes the table as UTF-8 CSV with a byte order mark and a
// header row of canonical labels. Returns ErrEmptyResult for an empty table.
func WriteCSV(w io.Writer, t *UnifiedTable) error {
	if t.Empty() {
		return ErrEmptyResult
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.Records {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook. Amounts are
// numeric cells; ISBN is always a text cell so leading zeros survive.
func WriteXLSX(w io.Writer, t *UnifiedTable) error {
	if t.Empty() {
		return ErrEmptyResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, label := range t.Header() {
		header[i] = label
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range t.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := r.Values()
		for j, v := range row {
			if d, ok := v.(decimal.Decimal); ok {
				row[j] = d.InexactFloat64()
			}
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Encode writes t in the given encoding.
func Encode(w io.Writer, kind ExportKind, t *UnifiedTable) error {
	if kind == ExportCSV {
		return WriteCSV(w, t)
	}
	return WriteXLSX(w, t)
}

// Save writes t to path, choosing the encoding from the extension. An
// empty table returns ErrEmptyResult and creates no file. Write failures
// are returned as *ExportError.
func Save(path string, t *UnifiedTable) error {
	if t.Empty() {
		return ErrEmptyResult
	}

	var buf bytes.Buffer
	if err := Encode(&buf, ExportKindFor(path), t); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}
