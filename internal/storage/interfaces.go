// Package storage defines the record store contract: runs, legs and
// mark-to-market snapshots written by the trading process.
package storage

import (
	"context"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// RunStore provides access to runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// GetLatest retrieves the run with the greatest start_ts, optionally restricted to mode.
	// Returns ErrNotFound if no run matches.
	GetLatest(ctx context.Context, mode *domain.Mode) (*domain.Run, error)

	// List retrieves runs matching filter, ordered by start_ts DESC.
	// Strategy tags match case-insensitively; date bounds are inclusive on start_ts.
	List(ctx context.Context, filter domain.RunFilter) ([]*domain.Run, error)
}

// LegStore provides access to legs storage.
type LegStore interface {
	// Insert adds a new leg. Returns ErrDuplicateKey if an open leg for
	// (run_id, symbol) already exists.
	Insert(ctx context.Context, l *domain.Leg) error

	// GetByRunID retrieves all legs of a run, ordered by symbol ASC, entry_ts ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Leg, error)
}

// SnapshotStore provides access to snapshots storage.
type SnapshotStore interface {
	// InsertBulk appends snapshots. Snapshots are append-only; redundant
	// retransmissions are accepted and resolved by readers.
	InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) error

	// GetByRunID retrieves all snapshots of a run in insertion order.
	// Callers must not assume timestamp order.
	GetByRunID(ctx context.Context, runID string) ([]*domain.Snapshot, error)

	// GetLatest retrieves up to limit snapshots of a run, ordered by ts DESC.
	GetLatest(ctx context.Context, runID string, limit int) ([]*domain.Snapshot, error)
}

// Stores bundles the record stores of one backend.
type Stores struct {
	Runs      RunStore
	Legs      LegStore
	Snapshots SnapshotStore
}
