// Package ratelimit bounds outbound calls to one external system to a
// ceiling within a trailing window. Both VCOM and Yuman enforce 60 req/min
// server-side; staying under it locally avoids burning quota on 429s.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so limiter tests run without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// margin added to every computed wait, so a call admitted right at the
// window edge lands on the far side of the remote quota bucket.
const defaultMargin = 100 * time.Millisecond

// Limiter is a sliding-window rate limiter. One instance is shared by every
// call path of a given external system, since the remote quota does not care
// which internal caller spends it. Safe for concurrent use: in-flight calls
// count against the ceiling, so parallel appliers cannot overshoot.
type Limiter struct {
	limit  int
	window time.Duration
	margin time.Duration
	clock  Clock

	mu       sync.Mutex
	calls    []time.Time // completion timestamps, oldest first
	inflight int
}

// New returns a limiter admitting at most limit calls per window.
func New(limit int, window time.Duration) *Limiter {
	return NewWithClock(limit, window, realClock{})
}

// NewWithClock is New with an injected clock.
func NewWithClock(limit int, window time.Duration, clock Clock) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		margin: defaultMargin,
		clock:  clock,
	}
}

// Acquire blocks until the window admits another call. Every successful
// Acquire must be paired with Release once the call completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.evict(now)
		if l.inflight+len(l.calls) < l.limit {
			l.inflight++
			l.mu.Unlock()
			return nil
		}
		wait := l.margin
		if len(l.calls) > 0 {
			wait = l.window - now.Sub(l.calls[0]) + l.margin
		}
		l.mu.Unlock()

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Release records the call's completion timestamp. Recording after the call,
// not before, matches how the remote service meters its quota.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--
	l.calls = append(l.calls, l.clock.Now())
}

// Do runs fn under the limiter.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}

// evict drops timestamps that have left the window. Caller holds mu.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.calls) && now.Sub(l.calls[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}
