package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per cycle with the time the cycle started.
type TickFunc func(ctx context.Context, started time.Time) error

// SleepFunc is told how long the scheduler is about to wait and when the next cycle is due.
type SleepFunc func(interval time.Duration, next time.Time)

// Options tune scheduler behaviour.
type Options struct {
	// Interval is the pause after each cycle finishes. It is not a wall-clock
	// grid: time spent inside a cycle pushes the next one back.
	Interval     time.Duration
	StartupDelay time.Duration
	OnSleep      SleepFunc
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler drives the fixed-interval cycle loop.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Interval returns the configured pause between cycles.
func (s *Scheduler) Interval() time.Duration { return s.opts.Interval }

// Run blocks, invoking tick and then sleeping Interval, until ctx is cancelled.
//
// Cancellation is only observed while waiting. The tick receives a context
// that ignores ctx's cancellation, so a stop request lets the running cycle
// finish its fetches and writes before Run returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := s.wait(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	tickCtx := context.WithoutCancel(ctx)
	for {
		started := s.opts.Now().UTC()
		if err := tick(tickCtx, started); err != nil {
			s.logger.Error().Err(err).Time("started", started).Msg("tick execution failed")
		}

		next := s.opts.Now().UTC().Add(s.opts.Interval)
		if s.opts.OnSleep != nil {
			s.opts.OnSleep(s.opts.Interval, next)
		}
		s.logger.Debug().Dur("interval", s.opts.Interval).Time("next_run", next).Msg("waiting for next cycle")

		if err := s.wait(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
