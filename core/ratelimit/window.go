package ratelimit

import (
	"context"
	"time"
)

// Window is a fixed-window request counter. It is not safe for concurrent use.
type Window struct {
	limit  int
	window time.Duration

	count int
	start time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWindow creates a limiter allowing limit requests per window.
// The first window starts immediately.
func NewWindow(limit int, window time.Duration) *Window {
	w := &Window{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
	w.start = w.now()
	return w
}

// WithClock replaces the clock and sleeper. Used by tests.
func (w *Window) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *Window {
	w.now = now
	w.sleep = sleep
	w.start = now()
	return w
}

// Full reports whether the current window has no requests left,
// i.e. whether the next Acquire starts a new window.
func (w *Window) Full() bool {
	return w.limit > 0 && w.count >= w.limit
}

// Acquire admits one request. When the window is full it blocks for the rest of
// the window, then opens a new window that the admitted request counts against.
// A non-positive limit disables limiting.
func (w *Window) Acquire(ctx context.Context) error {
	if w.limit <= 0 {
		return ctx.Err()
	}

	if w.count >= w.limit {
		if elapsed := w.now().Sub(w.start); elapsed < w.window {
			if err := w.sleep(ctx, w.window-elapsed); err != nil {
				return err
			}
		}
		w.count = 0
		w.start = w.now()
	}

	w.count++
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
