package core

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Version is the report format version shown by the frontends.
const Version = "1.0.0"

// Store is the display name of a retail partner. It is written into every
// record by the adapter that produced it, never read from the file.
type Store string

const (
	StoreYes24  Store = "예스24"
	StoreKyobo  Store = "교보문고"
	StoreAladin Store = "알라딘"
)

// Column describes one column of the unified table.
type Column struct {
	Key   string // Stable identifier: "settlement_amount"
	Label string // Export header: "정산액"
}

// Canonical column keys, in export order.
const (
	ColTitle            = "title"
	ColAuthor           = "author"
	ColISBN             = "isbn"
	ColStore            = "store"
	ColQuantity         = "quantity"
	ColUnitPrice        = "unit_price"
	ColSettlementAmount = "settlement_amount"
	ColListPrice        = "list_price"
	ColSupplyRate       = "supply_rate"
)

// CanonicalColumns is the fixed column order of the unified table.
var CanonicalColumns = []Column{
	{Key: ColTitle, Label: "도서명"},
	{Key: ColAuthor, Label: "저자명"},
	{Key: ColISBN, Label: "ISBN"},
	{Key: ColStore, Label: "서점명"},
	{Key: ColQuantity, Label: "입고수량"},
	{Key: ColUnitPrice, Label: "단가"},
	{Key: ColSettlementAmount, Label: "정산액"},
	{Key: ColListPrice, Label: "정가"},
	{Key: ColSupplyRate, Label: "입고율"},
}

// Record is one settled book line item.
//
// Records are values: an adapter builds them once per source row and the
// accumulator stores copies, so nothing downstream can mutate what an
// adapter produced.
type Record struct {
	Title            string
	Author           string
	ISBN             string // kept as text, leading zeros matter
	Store            Store
	Quantity         int
	UnitPrice        decimal.Decimal
	SettlementAmount decimal.Decimal
	ListPrice        int
	SupplyRate       int // percent
}

// Values returns the record's cells in canonical column order.
func (r Record) Values() []any {
	return []any{
		r.Title,
		r.Author,
		r.ISBN,
		string(r.Store),
		r.Quantity,
		r.UnitPrice,
		r.SettlementAmount,
		r.ListPrice,
		r.SupplyRate,
	}
}

// Strings returns the record's cells formatted as text, in canonical order.
func (r Record) Strings() []string {
	return []string{
		r.Title,
		r.Author,
		r.ISBN,
		string(r.Store),
		strconv.Itoa(r.Quantity),
		r.UnitPrice.String(),
		r.SettlementAmount.String(),
		strconv.Itoa(r.ListPrice),
		strconv.Itoa(r.SupplyRate),
	}
}

// FileResult is the outcome of processing one input file.
type FileResult struct {
	Path     string
	Name     string // base name, as shown to the user
	Format   Format
	Count    int   // records appended to the batch
	Err      error // nil on success
	Duration time.Duration
}

// OK reports whether the file contributed its records to the batch.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Line renders the per-file report line: "· name: 12건 처리" or
// "· name: <error>".
func (r FileResult) Line() string {
	if r.Err != nil {
		return "· " + r.Name + ": " + r.Err.Error()
	}
	return "· " + r.Name + ": " + strconv.Itoa(r.Count) + "건 처리"
}

// ProgressCallback is called after each file of a batch completes.
type ProgressCallback func(done, total int, result FileResult)
