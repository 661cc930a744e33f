package core

import (
	"context"
	"fmt"
	"time"
)

// BatchTimeout is the maximum duration of one settlement batch.
var BatchTimeout = 5 * time.Minute

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Processor ProcessorOptions

	// MaxConcurrent and MaxWait configure the batch limiter.
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs settlement batches for concurrent callers. Each batch gets
// its own accumulator; the limiter bounds how many run at once.
type Service struct {
	processor *Processor
	limiter   *BatchLimiter
}

// NewService creates a Service.
func NewService(opts ServiceOptions) *Service {
	return &Service{
		processor: NewProcessor(opts.Processor),
		limiter:   NewBatchLimiter(opts.MaxConcurrent, opts.MaxWait),
	}
}

// Processor returns the underlying processor.
func (s *Service) Processor() *Processor {
	return s.processor
}

// Limiter returns the batch limiter for status reporting and shutdown.
func (s *Service) Limiter() *BatchLimiter {
	return s.limiter
}

// ListFormats returns every recognized partner format in detection order.
func (s *Service) ListFormats() []FormatInfo {
	return Formats()
}

// Settle runs one batch over paths once a limiter slot is free.
//
// Returns ErrTooManyBatches if no slot becomes available in time. A non-nil
// BatchResult is returned whenever the batch ran; check BatchResult.Err
// for the empty result condition.
func (s *Service) Settle(ctx context.Context, paths []string, onFile ProgressCallback) (*BatchResult, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("settle: %w", ErrEmptyResult)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	batchCtx, cancel := context.WithTimeout(ctx, BatchTimeout)
	defer cancel()

	return s.processor.RunBatch(batchCtx, paths, onFile), nil
}
