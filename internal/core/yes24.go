package core

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// YES24 column headers. The export always puts the header on the first
// row and its names are matched exactly.
const (
	yes24Title      = "상품명"
	yes24InboundID  = "입고번호"
	yes24ISBN       = "ISBN13"
	yes24Quantity   = "입고수량"
	yes24Cost       = "원가"
	yes24Adjusted   = "조정입고금액"
	yes24ListPrice  = "정가"
	yes24SupplyRate = "입고율"
)

var yes24Fields = []Field{
	{Name: yes24Title, Required: true},
	{Name: yes24InboundID, Required: true},
	{Name: yes24ISBN},
	{Name: yes24Quantity},
	{Name: yes24Cost},
	{Name: yes24Adjusted},
	{Name: yes24ListPrice},
	{Name: yes24SupplyRate},
}

type yes24Adapter struct {
	p *Processor
}

func (a yes24Adapter) process(ctx context.Context, path string) ([]Record, error) {
	wb, err := a.p.openWorkbook(StoreYes24, path)
	if err != nil {
		return nil, err
	}

	t, err := wb.Table(0)
	if err != nil {
		return nil, &ReadError{Store: StoreYes24, Err: err}
	}

	cols, err := ExactColumns(t, yes24Fields)
	if err != nil {
		var mc *MissingColumnsError
		if errors.As(err, &mc) {
			mc.Store = StoreYes24
		}
		return nil, err
	}

	logger := a.p.logger(ctx)
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		title := strings.TrimSpace(cols.Value(row, yes24Title))
		inbound := strings.TrimSpace(cols.Value(row, yes24InboundID))
		if title == "" || inbound == "" {
			logger.Debug("row dropped", "store", StoreYes24, "row", i+2, "reason", "missing product name or inbound id")
			continue
		}

		records = append(records, Record{
			Title:            title,
			ISBN:             strings.TrimSpace(cols.Value(row, yes24ISBN)),
			Store:            StoreYes24,
			Quantity:         NormalizeInt(cols.Value(row, yes24Quantity), 0),
			UnitPrice:        NormalizeDecimal(cols.Value(row, yes24Cost), decimal.Zero),
			SettlementAmount: NormalizeDecimal(cols.Value(row, yes24Adjusted), decimal.Zero),
			ListPrice:        NormalizeInt(cols.Value(row, yes24ListPrice), 0),
			SupplyRate:       NormalizeInt(cols.Value(row, yes24SupplyRate), 0),
		})
	}

	return records, nil
}
