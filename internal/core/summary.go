package core

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// StoreSummary is the per-store total of a unified table.
type StoreSummary struct {
	Store    Store
	Records  int
	Quantity int
	Amount   decimal.Decimal
}

// String formats the summary line, e.g. "- 예스24: 수량 12 / 금액 1,234,000원".
// The amount is truncated to whole won.
func (s StoreSummary) String() string {
	return "- " + string(s.Store) + ": 수량 " + strconv.Itoa(s.Quantity) + " / 금액 " + FormatWon(s.Amount) + "원"
}

// FormatWon formats an amount as whole won with thousands separators
// (1234000.7 → "1,234,000").
func FormatWon(d decimal.Decimal) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", d.IntPart())
}

// Summarize groups the table by store, sorted by store name.
func Summarize(t *UnifiedTable) []StoreSummary {
	if t.Empty() {
		return nil
	}

	byStore := make(map[Store]*StoreSummary)
	for _, r := range t.Records {
		s, ok := byStore[r.Store]
		if !ok {
			s = &StoreSummary{Store: r.Store, Amount: decimal.Zero}
			byStore[r.Store] = s
		}
		s.Records++
		s.Quantity += r.Quantity
		s.Amount = s.Amount.Add(r.SettlementAmount)
	}

	out := make([]StoreSummary, 0, len(byStore))
	for _, s := range byStore {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Store < out[j].Store })
	return out
}

// FormatSummary renders the total line followed by one line per store.
// Returns "" for an empty table.
func FormatSummary(t *UnifiedTable) string {
	if t.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("총 " + strconv.Itoa(t.Len()) + "건 처리")
	for _, s := range Summarize(t) {
		b.WriteByte('\n')
		b.WriteString(s.String())
	}
	return b.String()
}
