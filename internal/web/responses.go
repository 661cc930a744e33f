package web

import (
	"github.com/JonMunkholm/settlement/internal/core"
	"github.com/shopspring/decimal"
)

// FormatResponse describes one recognized partner format.
type FormatResponse struct {
	Key     string   `json:"key"`
	Store   string   `json:"store"`
	Markers []string `json:"markers"`
	PerBook bool     `json:"per_book"`
}

// FileResponse is the outcome of one uploaded file.
type FileResponse struct {
	Name       string         `json:"name"`
	Format     string         `json:"format"`
	Records    int            `json:"records"`
	Line       string         `json:"line"`
	DurationMS int64          `json:"duration_ms"`
	Error      *ErrorResponse `json:"error,omitempty"`
}

// StoreSummaryResponse is one per-store total.
type StoreSummaryResponse struct {
	Store    string          `json:"store"`
	Records  int             `json:"records"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	Line     string          `json:"line"`
}

// RecordResponse is one unified table row. Decimals are encoded as strings.
type RecordResponse struct {
	Title            string          `json:"title"`
	Author           string          `json:"author"`
	ISBN             string          `json:"isbn"`
	Store            string          `json:"store"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
	ListPrice        int             `json:"list_price"`
	SupplyRate       int             `json:"supply_rate"`
}

// SettlementResponse is the JSON body of a completed batch.
type SettlementResponse struct {
	RunID      string                 `json:"run_id"`
	Files      []FileResponse         `json:"files"`
	Total      int                    `json:"total"`
	Summary    []StoreSummaryResponse `json:"summary"`
	Message    string                 `json:"message,omitempty"`
	Columns    []string               `json:"columns"`
	Records    []RecordResponse       `json:"records"`
	DurationMS int64                  `json:"duration_ms"`
}

func newFormatResponses(infos []core.FormatInfo) []FormatResponse {
	out := make([]FormatResponse, len(infos))
	for i, info := range infos {
		out[i] = FormatResponse{
			Key:     info.Key,
			Store:   string(info.Store),
			Markers: info.Markers,
			PerBook: info.PerBook,
		}
	}
	return out
}

func newSettlementResponse(b *core.BatchResult) SettlementResponse {
	resp := SettlementResponse{
		RunID:      b.RunID,
		Files:      make([]FileResponse, len(b.Results)),
		Total:      b.Table.Len(),
		Summary:    []StoreSummaryResponse{},
		Message:    b.Message(),
		Columns:    b.Table.Header(),
		Records:    make([]RecordResponse, 0, b.Table.Len()),
		DurationMS: b.Duration.Milliseconds(),
	}

	for i, r := range b.Results {
		fr := FileResponse{
			Name:       r.Name,
			Format:     r.Format.String(),
			Records:    r.Count,
			Line:       r.Line(),
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			e := newErrorResponse(core.MapError(r.Err))
			fr.Error = &e
		}
		resp.Files[i] = fr
	}

	for _, s := range core.Summarize(b.Table) {
		resp.Summary = append(resp.Summary, StoreSummaryResponse{
			Store:    string(s.Store),
			Records:  s.Records,
			Quantity: s.Quantity,
			Amount:   s.Amount,
			Line:     s.String(),
		})
	}

	for _, rec := range b.Table.Records {
		resp.Records = append(resp.Records, RecordResponse{
			Title:            rec.Title,
			Author:           rec.Author,
			ISBN:             rec.ISBN,
			Store:            string(rec.Store),
			Quantity:         rec.Quantity,
			UnitPrice:        rec.UnitPrice,
			SettlementAmount: rec.SettlementAmount,
			ListPrice:        rec.ListPrice,
			SupplyRate:       rec.SupplyRate,
		})
	}
	return resp
}
