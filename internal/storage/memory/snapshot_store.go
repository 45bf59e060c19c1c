package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
// Snapshots are kept in arrival order per run.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Snapshot // keyed by run_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.Snapshot),
	}
}

// InsertBulk appends snapshots atomically. Fails the entire batch on invalid input.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" || snap.Symbol == "" || snap.TS.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		copy := *snap
		s.data[snap.RunID] = append(s.data[snap.RunID], &copy)
	}

	return nil
}

// GetByRunID retrieves all snapshots of a run in arrival order.
func (s *SnapshotStore) GetByRunID(_ context.Context, runID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.data[runID]
	result := make([]*domain.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		copy := *snap
		result = append(result, &copy)
	}
	return result, nil
}

// GetLatest retrieves up to limit snapshots of a run, ordered by ts DESC.
func (s *SnapshotStore) GetLatest(ctx context.Context, runID string, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	result, err := s.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].TS.Equal(result[j].TS) {
			return result[i].TS.After(result[j].TS)
		}
		return result[i].Symbol < result[j].Symbol
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
