package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBatchLimiter_SlotAccounting(t *testing.T) {
	l := NewBatchLimiter(2, time.Second)
	ctx := context.Background()

	steps := []struct {
		name      string
		op        func()
		active    int
		available int
	}{
		{"initial", func() {}, 0, 2},
		{"acquire", func() { mustAcquire(t, l, ctx) }, 1, 1},
		{"acquire again", func() { mustAcquire(t, l, ctx) }, 2, 0},
		{"release", l.Release, 1, 1},
		{"release again", l.Release, 0, 2},
	}
	for _, s := range steps {
		s.op()
		if got := l.ActiveCount(); got != s.active {
			t.Errorf("%s: ActiveCount = %d, want %d", s.name, got, s.active)
		}
		if got := l.Status().Available; got != s.available {
			t.Errorf("%s: Available = %d, want %d", s.name, got, s.available)
		}
	}
}

func mustAcquire(t *testing.T, l *BatchLimiter, ctx context.Context) {
	t.Helper()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
}

func TestBatchLimiter_RejectsAfterWait(t *testing.T) {
	l := NewBatchLimiter(1, 50*time.Millisecond)
	ctx := context.Background()
	mustAcquire(t, l, ctx)
	defer l.Release()

	start := time.Now()
	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyBatches) {
		t.Fatalf("Acquire on full limiter = %v, want ErrTooManyBatches", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("rejected after %v, expected to wait for the timeout", elapsed)
	}
	if got := MapError(err).Code; got != "RUN002" {
		t.Errorf("MapError code = %s, want RUN002", got)
	}
}

func TestBatchLimiter_CallerCancellation(t *testing.T) {
	l := NewBatchLimiter(1, 5*time.Second)
	mustAcquire(t, l, context.Background())
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestBatchLimiter_NeverExceedsMax(t *testing.T) {
	const maxSlots = 3
	l := NewBatchLimiter(maxSlots, time.Second)

	var wg sync.WaitGroup
	var peak atomic.Int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()

			n := int32(l.ActiveCount())
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > maxSlots {
		t.Errorf("peak active = %d, want <= %d", got, maxSlots)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after all released = %d, want 0", got)
	}
}

func TestBatchLimiter_SlotReusedAfterRelease(t *testing.T) {
	l := NewBatchLimiter(1, 20*time.Millisecond)
	mustAcquire(t, l, context.Background())
	if err := l.Acquire(context.Background()); !errors.Is(err, ErrTooManyBatches) {
		t.Fatalf("Acquire on full limiter = %v, want ErrTooManyBatches", err)
	}
	l.Release()
	mustAcquire(t, l, context.Background())
	l.Release()
}

func TestBatchLimiter_WaitForDrain(t *testing.T) {
	l := NewBatchLimiter(2, time.Second)
	mustAcquire(t, l, context.Background())

	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitForDrain returned with a batch running")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after release")
	}
}

func TestBatchLimiter_WaitForDrainCancelled(t *testing.T) {
	l := NewBatchLimiter(1, time.Second)
	mustAcquire(t, l, context.Background())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain = %v, want context.DeadlineExceeded", err)
	}
}

func TestBatchLimiter_StatusAndDefaults(t *testing.T) {
	l := NewBatchLimiter(0, 0)
	if got := l.MaxConcurrent(); got != DefaultMaxConcurrentBatches {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentBatches)
	}

	mustAcquire(t, l, context.Background())
	defer l.Release()

	want := BatchLimiterStatus{Active: 1, Available: DefaultMaxConcurrentBatches - 1, MaxConcurrent: DefaultMaxConcurrentBatches}
	if got := l.Status(); got != want {
		t.Errorf("Status = %+v, want %+v", got, want)
	}
}
