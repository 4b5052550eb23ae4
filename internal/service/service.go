package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"feewatch/internal/clock"
	"feewatch/internal/derive"
	"feewatch/internal/fetcher"
	"feewatch/internal/scheduler"
	"feewatch/internal/storage"
	"feewatch/internal/trace"
)

const mirrorTimeout = 5 * time.Second

// TabularStore appends snapshots to the CSV table.
type TabularStore interface {
	EnsureHeader() error
	Append(snapshot storage.Snapshot) error
}

// RecordStore appends raw+derived records to the JSON-lines log.
type RecordStore interface {
	Append(record storage.Record) error
}

// ErrorSink records failed cycles.
type ErrorSink interface {
	Log(message string) error
}

// MetricsRecorder observes cycle outcomes.
type MetricsRecorder interface {
	RecordSnapshot(snapshot storage.Snapshot, seconds float64)
	RecordFailure(kind string, seconds float64)
	RecordMirrorError()
}

// Deps groups the collaborators of a Service. Mirror, Metrics and Tracer are
// optional. Clock times each cycle for Metrics and defaults to the system clock.
type Deps struct {
	Name    string
	Source  fetcher.Source
	Tabular TabularStore
	Records RecordStore
	Errors  ErrorSink
	Mirror  storage.SnapshotMirror
	Metrics MetricsRecorder
	Tracer  *trace.Tracer
	Clock   clock.Clock
}

// Service orchestrates fetching, derivation and persistence.
type Service struct {
	deps      Deps
	scheduler *scheduler.Scheduler
	logger    zerolog.Logger
}

// New constructs the collector service.
func New(deps Deps, sched *scheduler.Scheduler, logger zerolog.Logger) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Name == "" {
		deps.Name = "feewatch"
	}
	return &Service{
		deps:      deps,
		scheduler: sched,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run announces the collector, stamps the CSV header and runs the cycle loop
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}

	s.deps.Tracer.Started(s.deps.Name, s.scheduler.Interval())

	// A failure here is retried by the first Append.
	if err := s.deps.Tabular.EnsureHeader(); err != nil {
		s.logger.Error().Err(err).Msg("failed to prepare tabular output")
		s.logFailure(fmt.Errorf("prepare tabular output: %w", err))
	}

	err := s.scheduler.Run(ctx, s.ProcessTick)
	if errors.Is(err, context.Canceled) {
		s.deps.Tracer.Stopped()
	}
	return err
}

// ProcessTick runs one cycle stamped with started and reports its outcome.
// Cycle failures are absorbed here so the loop always reaches its next sleep.
func (s *Service) ProcessTick(ctx context.Context, started time.Time) error {
	ts := clock.FormatISO(started)
	s.deps.Tracer.CycleStarted(ts)

	begin := s.deps.Clock()
	result := s.RunCycle(ctx, ts)
	elapsed := s.deps.Clock().Sub(begin).Seconds()

	if result.OK() {
		s.deps.Tracer.Saved(*result.Snapshot)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordSnapshot(*result.Snapshot, elapsed)
		}
		s.logger.Info().
			Str("timestamp", ts).
			Int64("fastest", result.Snapshot.FastestFee).
			Int64("mempool_vsize", result.Snapshot.MempoolVSize).
			Str("ratio", storage.FormatRatio(result.Snapshot.Ratio)).
			Msg("snapshot recorded")
		return nil
	}

	s.deps.Tracer.Failed(ts, result.Err)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordFailure(string(result.Kind), elapsed)
	}
	s.logger.Error().Err(result.Err).Str("timestamp", ts).Str("kind", string(result.Kind)).Msg("cycle failed")
	s.logFailure(result.Err)
	return nil
}

// RunCycle fetches both documents, derives the snapshot and appends it to the
// CSV table and the record log. It never retries.
func (s *Service) RunCycle(ctx context.Context, ts string) CycleResult {
	fees, err := s.deps.Source.FetchFeeEstimate(ctx)
	if err != nil {
		return failed(ts, fmt.Errorf("fetch fee estimate: %w", err))
	}

	mempool, err := s.deps.Source.FetchMempoolSnapshot(ctx)
	if err != nil {
		return failed(ts, fmt.Errorf("fetch mempool snapshot: %w", err))
	}

	snapshot, err := derive.Row(ts, fees, mempool)
	if err != nil {
		return failed(ts, err)
	}

	if err := s.deps.Tabular.Append(snapshot); err != nil {
		return failed(ts, err)
	}
	if err := s.deps.Records.Append(storage.Record{Fees: fees, Mempool: mempool, Snapshot: snapshot}); err != nil {
		return failed(ts, err)
	}

	s.mirror(ctx, snapshot)
	return succeeded(ts, snapshot)
}

// mirror copies the snapshot to the database. The files are the system of
// record, so a mirror failure does not fail the cycle.
func (s *Service) mirror(ctx context.Context, snapshot storage.Snapshot) {
	if s.deps.Mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	if err := s.deps.Mirror.InsertSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn().Err(err).Str("timestamp", snapshot.Timestamp).Msg("failed to mirror snapshot")
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordMirrorError()
		}
	}
}

func (s *Service) logFailure(err error) {
	if s.deps.Errors == nil {
		return
	}
	if logErr := s.deps.Errors.Log(err.Error()); logErr != nil {
		s.logger.Error().Err(logErr).Msg("failed to append error log")
	}
}
