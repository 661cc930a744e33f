package core

import "sync"

// Accumulator collects canonical records for one processing batch.
//
// Lifecycle: create one with NewAccumulator per batch, append each file's
// records, then Seal it when the batch completes. A sealed accumulator
// rejects further appends, so a finished batch can never be contaminated by
// a later run; start a new batch with a fresh accumulator instead.
//
// Append is safe for concurrent use and each call is atomic: the records of
// one call stay contiguous and in order.
type Accumulator struct {
	mu      sync.Mutex
	records []Record
	sealed  bool
}

// NewAccumulator returns an empty, open accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds records in order. Returns ErrAccumulatorSealed after Seal.
func (a *Accumulator) Append(records ...Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return ErrAccumulatorSealed
	}
	a.records = append(a.records, records...)
	return nil
}

// Seal marks the batch complete.
func (a *Accumulator) Seal() {
	a.mu.Lock()
	a.sealed = true
	a.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (a *Accumulator) Sealed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sealed
}

// Len returns the number of accumulated records.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// UnifiedTable returns a snapshot of the accumulated records projected on
// the canonical columns. Insertion order is preserved.
func (a *Accumulator) UnifiedTable() *UnifiedTable {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]Record, len(a.records))
	copy(records, a.records)
	return NewUnifiedTable(records)
}

// UnifiedTable is the consolidated result of a batch: every record of
// every processed file, in processing order, under the canonical columns.
// A table with zero rows still has the full column set.
type UnifiedTable struct {
	Columns []Column
	Records []Record
}

// NewUnifiedTable wraps records in the canonical schema.
func NewUnifiedTable(records []Record) *UnifiedTable {
	cols := make([]Column, len(CanonicalColumns))
	copy(cols, CanonicalColumns)
	if records == nil {
		records = []Record{}
	}
	return &UnifiedTable{Columns: cols, Records: records}
}

// Len returns the number of rows.
func (t *UnifiedTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Empty reports whether the table has no rows.
func (t *UnifiedTable) Empty() bool {
	return t.Len() == 0
}

// Header returns the export header labels in canonical order.
func (t *UnifiedTable) Header() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// Keys returns the canonical column keys in order.
func (t *UnifiedTable) Keys() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Key
	}
	return out
}

// Rows returns every record formatted as text cells.
func (t *UnifiedTable) Rows() [][]string {
	out := make([][]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Strings()
	}
	return out
}
