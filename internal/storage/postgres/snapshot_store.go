package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// The serial id column records arrival order.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshots atomically. Fails the entire batch on invalid input.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.Symbol == "" || snap.TS.IsZero() {
			return storage.ErrInvalidInput
		}
	}
	defer observe("snapshots_insert", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO snapshots (run_id, ts, symbol, price, unrealized_pnl, margin, leverage)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, snap.RunID, snap.TS.UTC(), snap.Symbol, snap.Price, snap.UnrealizedPnL, snap.Margin, snap.Leverage)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRunID retrieves all snapshots of a run in arrival order.
func (s *SnapshotStore) GetByRunID(ctx context.Context, runID string) (_ []*domain.Snapshot, err error) {
	defer observe("snapshots_by_run", time.Now(), &err)

	rows, err := s.pool.Query(ctx, `
		SELECT run_id, ts, symbol, price, unrealized_pnl, margin, leverage
		FROM snapshots
		WHERE run_id = $1
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by run id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetLatest retrieves up to limit snapshots of a run, ordered by ts DESC.
func (s *SnapshotStore) GetLatest(ctx context.Context, runID string, limit int) (_ []*domain.Snapshot, err error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}
	defer observe("snapshots_latest", time.Now(), &err)

	rows, err := s.pool.Query(ctx, `
		SELECT run_id, ts, symbol, price, unrealized_pnl, margin, leverage
		FROM snapshots
		WHERE run_id = $1
		ORDER BY ts DESC, symbol ASC, id ASC
		LIMIT $2
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("get latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	result := make([]*domain.Snapshot, 0)

	for rows.Next() {
		var snap domain.Snapshot
		err := rows.Scan(
			&snap.RunID, &snap.TS, &snap.Symbol,
			&snap.Price, &snap.UnrealizedPnL, &snap.Margin, &snap.Leverage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snap.TS = snap.TS.UTC()
		result = append(result, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return result, nil
}
