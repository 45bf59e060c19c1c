package clickhouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/observability"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Arrival order is kept in the seq column, a nanosecond stamp that is
// strictly increasing within this process.
type SnapshotStore struct {
	conn *Conn

	mu      sync.Mutex
	lastSeq uint64
	now     func() time.Time
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk appends snapshots in one batch. Fails the entire batch on invalid input.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.Snapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.Symbol == "" || snap.TS.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "snapshots_insert", time.Since(start).Seconds(), err) }()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO run_snapshots (
			run_id, seq, ts, symbol, price, unrealized_pnl, margin, leverage
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	seq := s.reserve(len(snapshots))
	for i, snap := range snapshots {
		err = batch.Append(
			snap.RunID, seq+uint64(i), snap.TS.UTC(), snap.Symbol,
			snap.Price, snap.UnrealizedPnL, snap.Margin, snap.Leverage,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// reserve returns the first of n consecutive sequence numbers.
func (s *SnapshotStore) reserve(n int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := uint64(s.now().UnixNano())
	if next <= s.lastSeq {
		next = s.lastSeq + 1
	}
	s.lastSeq = next + uint64(n) - 1
	return next
}

// GetByRunID retrieves all snapshots of a run in arrival order.
func (s *SnapshotStore) GetByRunID(ctx context.Context, runID string) (result []*domain.Snapshot, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "snapshots_by_run", time.Since(start).Seconds(), err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, ts, symbol, price, unrealized_pnl, margin, leverage
		FROM run_snapshots
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by run id: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetLatest retrieves up to limit snapshots of a run, ordered by ts DESC.
func (s *SnapshotStore) GetLatest(ctx context.Context, runID string, limit int) (result []*domain.Snapshot, err error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "snapshots_latest", time.Since(start).Seconds(), err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT run_id, ts, symbol, price, unrealized_pnl, margin, leverage
		FROM run_snapshots
		WHERE run_id = ?
		ORDER BY ts DESC, symbol ASC, seq ASC
		LIMIT ?
	`, runID, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows driver.Rows) ([]*domain.Snapshot, error) {
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
