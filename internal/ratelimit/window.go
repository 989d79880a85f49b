package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window enforces at most max calls per fixed-length window.
// The first Acquire anchors the window; the window then advances in whole
// periods, so a burst that fills a window delays callers until it rolls over.
type Window struct {
	max    int
	period time.Duration

	mu          sync.Mutex
	windowStart time.Time
	calls       int
}

// NewWindow returns a limiter granting maxCalls per period. Non-positive
// values are clamped to 1 call and 1 second, so config-derived zeros yield a
// conservative limiter rather than an unusable one.
func NewWindow(maxCalls int, period time.Duration) *Window {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &Window{max: maxCalls, period: period}
}

// Acquire blocks until a call slot is available, then reserves it.
// It only fails when ctx is canceled; otherwise the worst case is a delay
// until the current window rolls over.
func (w *Window) Acquire(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		if w.windowStart.IsZero() {
			w.windowStart = now
		}
		if elapsed := now.Sub(w.windowStart); elapsed >= w.period {
			w.windowStart = w.windowStart.Add((elapsed / w.period) * w.period)
			w.calls = 0
		}
		if w.calls < w.max {
			w.calls++
			w.mu.Unlock()
			return nil
		}
		wait := w.period - now.Sub(w.windowStart)
		w.mu.Unlock()
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
