// Package sheet reads settlement workbooks into header-addressed tables.
//
// Partner files arrive as Excel containers in two generations:
//
//   - .xlsx (Office Open XML), read with excelize
//   - .xls (BIFF8 compound document), read with extrame/xls
//
// The reader strategy is chosen by file extension only. Every other
// extension is rejected with [ErrUnsupportedExtension] before the file is
// opened.
//
// Only the first worksheet is read. Cells are returned as the formatted
// text the spreadsheet displays, so numeric cells may carry thousands
// separators, currency marks or percent signs; numeric interpretation is
// left to the caller.
//
// A [Workbook] keeps the raw grid so the same file can be re-interpreted
// with different header rows via [Workbook.Table] without reopening it.
package sheet
