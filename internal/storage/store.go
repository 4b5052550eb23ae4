package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"feewatch/internal/config"
)

const (
	mirrorApplicationName = "feewatch"
	pingTimeout           = 5 * time.Second
)

// NewPool opens the mirror's connection pool and checks that the server
// answers before the first cycle runs.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := mirrorPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open mirror pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping mirror database: %w", err)
	}
	return pool, nil
}

// mirrorPoolConfig maps the database section onto pgx pool settings. The idle
// floor never exceeds the connection cap.
func mirrorPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.DSN == "" {
		return nil, ErrNotConfigured
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database.dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(min(cfg.MaxIdleConns, int(poolCfg.MaxConns)))
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = mirrorApplicationName
	}
	return poolCfg, nil
}
