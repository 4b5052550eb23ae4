package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	createSnapshotsTableSQL = `CREATE TABLE IF NOT EXISTS fee_snapshots (
        id                BIGSERIAL PRIMARY KEY,
        timestamp_utc     TIMESTAMPTZ NOT NULL,
        fastest_fee       BIGINT NOT NULL,
        half_hour_fee     BIGINT NOT NULL,
        hour_fee          BIGINT NOT NULL,
        economy_fee       BIGINT NOT NULL,
        minimum_fee       BIGINT NOT NULL,
        mempool_vsize     BIGINT NOT NULL,
        spread            BIGINT NOT NULL,
        ratio             NUMERIC(20,4) NOT NULL,
        fastest_minus_min BIGINT NOT NULL,
        urgency_gap       BIGINT NOT NULL,
        created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	insertSnapshotSQL = `INSERT INTO fee_snapshots (
        timestamp_utc,
        fastest_fee,
        half_hour_fee,
        hour_fee,
        economy_fee,
        minimum_fee,
        mempool_vsize,
        spread,
        ratio,
        fastest_minus_min,
        urgency_gap
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    );`

	countSnapshotsSQL = `SELECT COUNT(*) FROM fee_snapshots;`
)

// SnapshotMirror receives a copy of every persisted snapshot.
type SnapshotMirror interface {
	InsertSnapshot(ctx context.Context, snapshot Snapshot) error
}

// Store mirrors snapshots into PostgreSQL. Rows are only ever inserted.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// EnsureSchema creates the mirror table when missing. Existing tables are left as they are.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSnapshotsTableSQL); execErr != nil {
		return fmt.Errorf("ensure fee_snapshots table: %w", execErr)
	}
	return nil
}

// InsertSnapshot appends one snapshot row.
func (s *Store) InsertSnapshot(ctx context.Context, snapshot Snapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	ts, err := time.Parse(time.RFC3339, snapshot.Timestamp)
	if err != nil {
		return fmt.Errorf("parse snapshot timestamp: %w", err)
	}

	_, execErr := pool.Exec(ctx, insertSnapshotSQL,
		ts,
		snapshot.FastestFee,
		snapshot.HalfHourFee,
		snapshot.HourFee,
		snapshot.EconomyFee,
		snapshot.MinimumFee,
		snapshot.MempoolVSize,
		snapshot.Spread,
		FormatRatio(snapshot.Ratio),
		snapshot.FastestMinusMin,
		snapshot.UrgencyGap,
	)
	if execErr != nil {
		return fmt.Errorf("insert snapshot: %w", execErr)
	}
	return nil
}

// CountSnapshots counts mirrored snapshots.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSnapshotsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

var _ SnapshotMirror = (*Store)(nil)
