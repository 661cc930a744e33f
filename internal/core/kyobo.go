package core

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Kyobo column headers after normalization.
const (
	kyoboTitle      = "상품명"
	kyoboCode       = "상품코드"
	kyoboQuantity   = "수량"
	kyoboTotal      = "합계금액"
	kyoboListPrice  = "정가"
	kyoboSupplyRate = "공급율"
)

// DefaultKyoboHeaderOffsets are the header rows tried, in order. Kyobo
// exports carry a variable-height title block above the table.
var DefaultKyoboHeaderOffsets = []int{3, 2, 0}

var kyoboFields = []Field{
	{Name: kyoboTitle, Required: true},
	{Name: kyoboCode},
	{Name: kyoboQuantity, Required: true},
	{Name: kyoboTotal, Required: true},
	{Name: kyoboListPrice},
	{Name: kyoboSupplyRate},
}

type kyoboAdapter struct {
	p *Processor
}

func (a kyoboAdapter) process(ctx context.Context, path string) ([]Record, error) {
	wb, err := a.p.openWorkbook(StoreKyobo, path)
	if err != nil {
		return nil, err
	}

	t, err := LocateHeader(wb, a.p.kyoboOffsets, a.p.minHeaderColumns)
	if err != nil {
		var he *HeaderError
		if errors.As(err, &he) {
			he.Store = StoreKyobo
		}
		return nil, err
	}

	cols, err := MapColumns(t, kyoboFields, a.p.synonyms.For(FormatKyobo))
	if err != nil {
		var mc *MissingColumnsError
		if errors.As(err, &mc) {
			mc.Store = StoreKyobo
		}
		return nil, err
	}

	logger := a.p.logger(ctx)
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		// Subtotal and footer rows have no numeric quantity or total.
		qty, qok := ParseNumber(cols.Value(row, kyoboQuantity))
		total, tok := ParseNumber(cols.Value(row, kyoboTotal))
		if !qok || !tok {
			logger.Debug("row dropped", "store", StoreKyobo, "row", i+1, "reason", "non-numeric quantity or total")
			continue
		}

		title := strings.TrimSpace(cols.Value(row, kyoboTitle))
		if title == "" {
			logger.Debug("row dropped", "store", StoreKyobo, "row", i+1, "reason", "blank product name")
			continue
		}

		q := NormalizeInt(qty, 0)
		amount := NormalizeInt(total, 0)
		unit := decimal.Zero
		if q > 0 {
			unit = decimal.NewFromInt(int64(amount)).DivRound(decimal.NewFromInt(int64(q)), 2)
		}

		records = append(records, Record{
			Title:            title,
			ISBN:             strings.TrimSpace(cols.Value(row, kyoboCode)),
			Store:            StoreKyobo,
			Quantity:         q,
			UnitPrice:        unit,
			SettlementAmount: decimal.NewFromInt(int64(amount)),
			ListPrice:        NormalizeInt(cols.Value(row, kyoboListPrice), 0),
			SupplyRate:       NormalizeInt(cols.Value(row, kyoboSupplyRate), 0),
		})
	}

	return records, nil
}
