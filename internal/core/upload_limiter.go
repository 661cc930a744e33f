package core

// upload_limiter.go bounds the number of settlement batches running at once.
//
// A batch holds every uploaded workbook in memory while it runs. Callers
// queue on a weighted semaphore for at most maxWait; a caller still queued
// after that gets ErrTooManyBatches and the HTTP surface answers RUN002.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyBatches is returned when no batch slot frees up within the
// wait time. Clients should retry after a short delay.
var ErrTooManyBatches = errors.New("too many settlement batches in progress, please try again later")

// Defaults applied by NewBatchLimiter for non-positive arguments.
const (
	DefaultMaxConcurrentBatches = 2
	DefaultMaxWaitTime          = 30 * time.Second
)

// drainPoll is how often WaitForDrain rechecks the running count.
const drainPoll = 100 * time.Millisecond

// BatchLimiter admits at most a fixed number of concurrent batches.
type BatchLimiter struct {
	sem     *semaphore.Weighted
	slots   int64
	maxWait time.Duration
	running atomic.Int64
}

// NewBatchLimiter creates a limiter with maxConcurrent slots. Acquire gives
// up after maxWait.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &BatchLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		slots:   int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is free. It returns ctx.Err() when the
// caller's context ends first and ErrTooManyBatches when the wait times
// out. Every nil return must be paired with one Release.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyBatches
	}
	l.running.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (l *BatchLimiter) Release() {
	l.running.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of running batches.
func (l *BatchLimiter) ActiveCount() int {
	return int(l.running.Load())
}

// MaxConcurrent returns the number of slots.
func (l *BatchLimiter) MaxConcurrent() int {
	return int(l.slots)
}

// WaitForDrain blocks until no batch is running or ctx is done. Used on
// shutdown after the listener stops accepting uploads.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// BatchLimiterStatus is the limiter state reported by /healthz.
type BatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns a snapshot of the limiter state.
func (l *BatchLimiter) Status() BatchLimiterStatus {
	active := l.ActiveCount()
	return BatchLimiterStatus{
		Active:        active,
		Available:     int(l.slots) - active,
		MaxConcurrent: int(l.slots),
	}
}
