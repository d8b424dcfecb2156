package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/owenleonard11/chronam-utils/pkg/errors"
)

// Limiter defines the interface for rate limiting. A single Limiter instance
// is shared by reference across every worker that issues remote calls.
type Limiter interface {
	// Acquire blocks until granting a permit would not exceed the budget,
	// then records the permit and returns. It fails only if ctx is
	// cancelled before a permit can be granted.
	Acquire(ctx context.Context) error
	// Reset clears all recorded permits
	Reset()
}

// Budget is the immutable configuration for a sliding-window limiter:
// at no instant may more than MaxCalls permits exist whose timestamps
// fall within the trailing Window.
type Budget struct {
	MaxCalls int
	Window   time.Duration
}

// SlidingWindow implements a sliding window rate limiter. The recorded
// permit timestamps are the only mutable state shared across workers and
// are guarded by the mutex.
type SlidingWindow struct {
	window   time.Duration
	maxCalls int
	permits  []time.Time
	mu       sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter.
// It returns a configuration error if the budget is non-positive.
func NewSlidingWindow(budget Budget) (*SlidingWindow, error) {
	if budget.MaxCalls <= 0 {
		return nil, errors.NewConfigurationError("rate budget max calls must be positive, got %d", budget.MaxCalls)
	}
	if budget.Window <= 0 {
		return nil, errors.NewConfigurationError("rate budget window must be positive, got %s", budget.Window)
	}

	return &SlidingWindow{
		window:   budget.Window,
		maxCalls: budget.MaxCalls,
		permits:  make([]time.Time, 0, budget.MaxCalls),
	}, nil
}

// Acquire blocks until a permit is available or ctx is cancelled. Waiters
// that wake re-check the window, since concurrent callers may have raced to
// fill the freed slot.
func (sw *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sw.mu.Lock()
		now := time.Now()
		sw.evictExpired(now)

		if len(sw.permits) < sw.maxCalls {
			sw.permits = append(sw.permits, now)
			sw.mu.Unlock()
			return nil
		}

		// Wait until the oldest permit exits the window
		wait := sw.window - now.Sub(sw.permits[0])
		sw.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reset clears all recorded permits
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.permits = sw.permits[:0]
}

// evictExpired removes permits outside the sliding window. Callers must
// hold the mutex.
func (sw *SlidingWindow) evictExpired(now time.Time) {
	cutoff := now.Add(-sw.window)

	i := 0
	for i < len(sw.permits) && sw.permits[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.permits, sw.permits[i:])
		sw.permits = sw.permits[:len(sw.permits)-i]
	}
}

// inWindow reports the count of permits inside the trailing window.
func (sw *SlidingWindow) inWindow(now time.Time) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	n := 0
	cutoff := now.Add(-sw.window)
	for _, p := range sw.permits {
		if !p.Before(cutoff) {
			n++
		}
	}
	return n
}

// Multi composes several limiters into one: Acquire grants a permit only
// after every underlying limiter has granted one, acquired in order. The
// loc.gov API publishes both a burst budget (per minute) and a crawl budget
// (per 10 seconds); Multi enforces both at once.
type Multi struct {
	limiters []Limiter
}

// NewMulti creates a composite limiter from the given budgets, ordered as
// supplied. At least one budget is required.
func NewMulti(budgets ...Budget) (*Multi, error) {
	if len(budgets) == 0 {
		return nil, errors.NewConfigurationError("at least one rate budget is required")
	}

	limiters := make([]Limiter, 0, len(budgets))
	for _, b := range budgets {
		sw, err := NewSlidingWindow(b)
		if err != nil {
			return nil, err
		}
		limiters = append(limiters, sw)
	}

	return &Multi{limiters: limiters}, nil
}

// Acquire acquires a permit from each underlying limiter in order
func (m *Multi) Acquire(ctx context.Context) error {
	for _, l := range m.limiters {
		if err := l.Acquire(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all underlying limiters
func (m *Multi) Reset() {
	for _, l := range m.limiters {
		l.Reset()
	}
}
