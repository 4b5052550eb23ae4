package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewPanicsOnNonPositiveInterval(t *testing.T) {
	require.Panics(t, func() { New(Options{}, zerolog.Nop()) })
}

func TestRunCompletesCycleBeforeHonouringCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ticks int
	var tickCtxErr error
	s := New(Options{Interval: time.Hour}, zerolog.Nop())

	err := s.Run(ctx, func(tickCtx context.Context, _ time.Time) error {
		ticks++
		tickCtxErr = tickCtx.Err()
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, ticks)
	require.NoError(t, tickCtxErr, "tick context must not inherit cancellation")
}

func TestRunCancelDuringTickFinishesTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var finished atomic.Bool
	s := New(Options{Interval: time.Hour}, zerolog.Nop())

	err := s.Run(ctx, func(tickCtx context.Context, _ time.Time) error {
		cancel()
		select {
		case <-tickCtx.Done():
			return tickCtx.Err()
		case <-time.After(20 * time.Millisecond):
		}
		finished.Store(true)
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	require.True(t, finished.Load())
}

func TestRunRepeatsAndReportsNextRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var sleeps []time.Time
	ticks := 0
	s := New(Options{
		Interval: 5 * time.Millisecond,
		Now:      func() time.Time { return base },
		OnSleep: func(interval time.Duration, next time.Time) {
			require.Equal(t, 5*time.Millisecond, interval)
			sleeps = append(sleeps, next)
		},
	}, zerolog.Nop())

	err := s.Run(ctx, func(_ context.Context, started time.Time) error {
		require.Equal(t, base, started)
		ticks++
		if ticks == 3 {
			cancel()
		}
		if ticks == 2 {
			return errors.New("cycle failed")
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, ticks, "tick errors must not stop the loop")
	require.Len(t, sleeps, 3)
	for _, next := range sleeps {
		require.Equal(t, base.Add(5*time.Millisecond), next)
	}
}

func TestRunStartupDelayInterruptible(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	s := New(Options{Interval: time.Hour, StartupDelay: time.Hour}, zerolog.Nop())
	err := s.Run(ctx, func(context.Context, time.Time) error {
		t.Fatal("tick must not run during startup delay")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
