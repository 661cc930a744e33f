package core

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows into the first sheet of a new .xlsx under dir
// and returns its path.
func writeWorkbook(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
	return path
}

// yes24Rows is a YES24 purchase export: three valid rows and one row
// without an inbound number.
func yes24Rows() [][]any {
	return [][]any{
		{"입고번호", "상품명", "ISBN13", "입고수량", "원가", "조정입고금액", "정가", "입고율"},
		{"A-1", "책 A", "9788912345678", 10, "7,000", "70,000", "10,000", "70%"},
		{"A-2", "책 B", "0012345678901", "2", 6500.5, 13001, 9000, 72},
		{"", "책 C", "9788900000000", 5, 1000, 5000, 2000, 50},
		{"A-3", "책 D", "", "1.0", "", "", "", ""},
	}
}

// kyoboRows is a Kyobo statement with a title block, wrapped header
// names, alternate spellings and a totals footer.
func kyoboRows() [][]any {
	return [][]any{
		{"교보문고 출판사 정산 내역"},
		{"정산기간", "2024-01-01 ~ 2024-01-31"},
		{},
		{"번호", "상품명", "상품\n코드", "수량", "합계", "정가", "공급률"},
		{1, "책 가", "K0001", 3, "30,000", 15000, 65},
		{2, "책 나", "K0002", "0", "0", 12000, 65},
		{3, "책 다", "K0003", 7, 20000, "", ""},
		{"", "합계", "", "", "50,000"},
	}
}
