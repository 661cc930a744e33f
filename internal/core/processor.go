package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/settlement/internal/logging"
	"github.com/JonMunkholm/settlement/internal/sheet"
)

// Observer receives processing outcomes, typically a metrics recorder.
type Observer interface {
	ObserveFile(format, status string, records int, d time.Duration)
	ObserveBatch(files, records int, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFile(string, string, int, time.Duration) {}
func (nopObserver) ObserveBatch(int, int, time.Duration)           {}

// File outcome labels reported to the Observer.
const (
	StatusOK        = "ok"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ProcessorOptions configures a Processor. Zero values select defaults.
type ProcessorOptions struct {
	// Synonyms holds per-format column alternates. Defaults to the embedded table.
	Synonyms SynonymTable

	// MinHeaderColumns is the non-empty cell count a header row must exceed.
	MinHeaderColumns int

	// KyoboHeaderOffsets are the header rows tried for Kyobo files, in order.
	KyoboHeaderOffsets []int

	// Open reads a workbook. Defaults to sheet.Open.
	Open func(path string) (*sheet.Workbook, error)

	Observer Observer
}

// Processor routes settlement files to their partner adapter and collects
// the results of a batch. A Processor holds configuration only and is safe
// to share between concurrent batches.
type Processor struct {
	synonyms         SynonymTable
	minHeaderColumns int
	kyoboOffsets     []int
	open             func(path string) (*sheet.Workbook, error)
	observer         Observer
}

// NewProcessor creates a Processor from opts.
func NewProcessor(opts ProcessorOptions) *Processor {
	p := &Processor{
		synonyms:         opts.Synonyms,
		minHeaderColumns: opts.MinHeaderColumns,
		kyoboOffsets:     opts.KyoboHeaderOffsets,
		open:             opts.Open,
		observer:         opts.Observer,
	}
	if p.synonyms == nil {
		p.synonyms = DefaultSynonyms()
	}
	if p.minHeaderColumns <= 0 {
		p.minHeaderColumns = DefaultMinHeaderColumns
	}
	if len(p.kyoboOffsets) == 0 {
		p.kyoboOffsets = DefaultKyoboHeaderOffsets
	}
	if p.open == nil {
		p.open = sheet.Open
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p
}

func (p *Processor) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ProcessFile detects the partner of path, extracts its records and
// appends them to acc in one call. Failures are reported in the result
// with Count 0; nothing is appended for a failed file.
func (p *Processor) ProcessFile(ctx context.Context, acc *Accumulator, path string) FileResult {
	start := time.Now()
	res := FileResult{Path: path, Name: displayName(path)}

	f, ok := Detect(path)
	if !ok {
		res.Err = ErrUndetectedFormat
	} else {
		res.Format = f
		records, err := p.extract(ctx, f, path)
		if err == nil {
			err = acc.Append(records...)
		}
		if err != nil {
			res.Err = err
		} else {
			res.Count = len(records)
		}
	}
	res.Duration = time.Since(start)

	status := StatusOK
	logger := logging.WithFields(ctx, "file", res.Name, "format", res.Format.String())
	if res.Err != nil {
		status = StatusFailed
		logger.Warn("file failed", "code", MapError(res.Err).Code, "error", res.Err)
	} else {
		logger.Info("file processed", "records", res.Count, "duration_ms", res.Duration.Milliseconds())
	}
	p.observer.ObserveFile(res.Format.String(), status, res.Count, res.Duration)

	return res
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	RunID    string
	Results  []FileResult
	Table    *UnifiedTable
	Duration time.Duration

	// Err is ErrEmptyResult when no file produced records.
	Err error
}

// Succeeded returns the number of files that produced records without error.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (b *BatchResult) Failed() []FileResult {
	var out []FileResult
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Message returns the batch-level notice: the empty result message when
// nothing was accumulated and no file reported its own error, otherwise "".
func (b *BatchResult) Message() string {
	if b.Err != nil && len(b.Failed()) == 0 {
		return b.Err.Error()
	}
	return ""
}

// RunBatch processes paths sequentially into a fresh accumulator. onFile,
// when non-nil, is called after each file. The context is checked only
// before each file starts; files not started are reported as cancelled.
// The batch always completes and the accumulator is sealed on return.
func (p *Processor) RunBatch(ctx context.Context, paths []string, onFile ProgressCallback) *BatchResult {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := p.logger(ctx)
	logger.Info("batch started", "files", len(paths))

	acc := NewAccumulator()
	results := make([]FileResult, 0, len(paths))
	for i, path := range paths {
		var res FileResult
		if err := ctx.Err(); err != nil {
			res = FileResult{
				Path: path,
				Name: displayName(path),
				Err:  fmt.Errorf("%w: %w", ErrBatchCancelled, err),
			}
			p.observer.ObserveFile(FormatUnknown.String(), StatusCancelled, 0, 0)
		} else {
			res = p.ProcessFile(ctx, acc, path)
		}
		results = append(results, res)
		if onFile != nil {
			onFile(i+1, len(paths), res)
		}
	}
	acc.Seal()

	out := &BatchResult{
		RunID:    runID,
		Results:  results,
		Table:    acc.UnifiedTable(),
		Duration: time.Since(start),
	}
	if out.Table.Empty() {
		out.Err = ErrEmptyResult
	}
	p.observer.ObserveBatch(len(paths), out.Table.Len(), out.Duration)

	if errors.Is(ctx.Err(), context.Canceled) {
		logger.Warn("batch cancelled", "records", out.Table.Len())
	}
	logger.Info("batch completed",
		"files", len(paths),
		"succeeded", out.Succeeded(),
		"records", out.Table.Len(),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out
}

// displayName is the base name of path, accepting either separator.
func displayName(path string) string {
	return filepath.Base(strings.ReplaceAll(path, `\`, "/"))
}
