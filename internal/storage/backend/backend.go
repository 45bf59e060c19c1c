// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/config"
	"github.com/steveuk2021/thescammershort/internal/fixtures"
	"github.com/steveuk2021/thescammershort/internal/storage"
	chstore "github.com/steveuk2021/thescammershort/internal/storage/clickhouse"
	"github.com/steveuk2021/thescammershort/internal/storage/memory"
	"github.com/steveuk2021/thescammershort/internal/storage/migrations"
	pgstore "github.com/steveuk2021/thescammershort/internal/storage/postgres"
)

// FixtureSeed seeds the memory-mode demo data.
const FixtureSeed = 20250401

// Open returns the stores and a cleanup that releases their connections.
// Runs and legs always live in PostgreSQL; snapshots go to ClickHouse when
// that backend is selected.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Stores, func(), error) {
	if cfg.UseMemory {
		return openMemory(ctx, cfg, logger)
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return storage.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return storage.Stores{}, nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	stores := storage.Stores{
		Runs:      pgstore.NewRunStore(pool),
		Legs:      pgstore.NewLegStore(pool),
		Snapshots: pgstore.NewSnapshotStore(pool),
	}
	cleanup := func() { pool.Close() }

	if cfg.SnapshotBackend == config.SnapshotBackendClickhouse {
		var chConn *chstore.Conn
		if cfg.Migrate {
			chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			chConn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			pool.Close()
			return storage.Stores{}, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		stores.Snapshots = chstore.NewSnapshotStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	logger.Info("record store opened",
		zap.String("runs", "postgres"),
		zap.String("snapshots", cfg.SnapshotBackend),
		zap.Bool("migrated", cfg.Migrate))
	return stores, cleanup, nil
}

func openMemory(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage.Stores, func(), error) {
	stores := storage.Stores{
		Runs:      memory.NewRunStore(),
		Legs:      memory.NewLegStore(),
		Snapshots: memory.NewSnapshotStore(),
	}

	if cfg.LoadFixtures {
		runs, err := fixtures.Load(ctx, stores, time.Now(), FixtureSeed)
		if err != nil {
			return storage.Stores{}, nil, fmt.Errorf("load fixtures: %w", err)
		}
		logger.Info("loaded demo runs", zap.Int("runs", len(runs)))
	}

	logger.Info("record store opened", zap.String("backend", "memory"))
	return stores, func() {}, nil
}
