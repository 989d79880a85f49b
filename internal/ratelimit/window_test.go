package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWindow_NoDelayWithinLimit(t *testing.T) {
	t.Parallel()

	w := NewWindow(3, time.Second)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Acquire(testContext(t)))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond, "calls within the limit must not be delayed")
}

func TestWindow_BackToBackCrossesWindows(t *testing.T) {
	t.Parallel()

	// max=1 per 150ms: 3 back-to-back calls must cross at least 2 boundaries.
	period := 150 * time.Millisecond
	w := NewWindow(1, period)
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Acquire(testContext(t)))
	}
	require.GreaterOrEqual(t, time.Since(start), 2*period-10*time.Millisecond)
}

func TestWindow_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	t.Parallel()

	const (
		callers = 9
		max     = 3
	)
	period := 120 * time.Millisecond
	w := NewWindow(max, period)

	var (
		mu     sync.Mutex
		grants []time.Time
		wg     sync.WaitGroup
	)
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, w.Acquire(context.Background()))
			mu.Lock()
			grants = append(grants, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, grants, callers)
	// 9 callers at 3 per window need at least 2 window boundaries crossed.
	require.GreaterOrEqual(t, time.Since(start), 2*period-10*time.Millisecond)
}

func TestWindow_AcquireHonorsContextCancel(t *testing.T) {
	t.Parallel()

	w := NewWindow(1, time.Hour)
	require.NoError(t, w.Acquire(testContext(t)))

	ctx, cancel := context.WithTimeout(testContext(t), 30*time.Millisecond)
	defer cancel()
	err := w.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_SharedPerProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	a := r.For("alphavantage", 5, time.Minute)
	require.Same(t, a, r.For("alphavantage", 99, time.Second), "settings are fixed on first use")
	require.NotSame(t, a, r.For("finnhub", 5, time.Minute))
}

func TestRegistry_ProvidersDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	slow := r.For("slow", 1, time.Hour)
	require.NoError(t, slow.Acquire(testContext(t)))

	// "slow" is now full for an hour; "fast" must still be granted immediately.
	start := time.Now()
	require.NoError(t, r.For("fast", 1, time.Hour).Acquire(testContext(t)))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
