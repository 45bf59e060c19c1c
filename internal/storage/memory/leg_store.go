package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// LegStore is an in-memory implementation of storage.LegStore.
type LegStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Leg // keyed by run_id
}

// NewLegStore creates a new in-memory leg store.
func NewLegStore() *LegStore {
	return &LegStore{
		data: make(map[string][]*domain.Leg),
	}
}

// Insert adds a new leg. Returns ErrDuplicateKey if the symbol already has an open leg in the run.
func (s *LegStore) Insert(_ context.Context, l *domain.Leg) error {
	if l == nil || l.RunID == "" || l.Symbol == "" {
		return storage.ErrInvalidInput
	}
	// Exit fields are both-or-neither and never precede entry
	if (l.ExitPrice == nil) != (l.ExitTS == nil) {
		return storage.ErrInvalidInput
	}
	if l.ExitTS != nil && l.ExitTS.Before(l.EntryTS) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l.Status == domain.LegStatusOpen {
		for _, existing := range s.data[l.RunID] {
			if existing.Symbol == l.Symbol && existing.Status == domain.LegStatusOpen {
				return storage.ErrDuplicateKey
			}
		}
	}

	copy := *l
	s.data[l.RunID] = append(s.data[l.RunID], &copy)
	return nil
}

// GetByRunID retrieves all legs of a run, ordered by symbol ASC, entry_ts ASC.
func (s *LegStore) GetByRunID(_ context.Context, runID string) ([]*domain.Leg, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	legs := s.data[runID]
	result := make([]*domain.Leg, 0, len(legs))
	for _, l := range legs {
		copy := *l
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Symbol != result[j].Symbol {
			return result[i].Symbol < result[j].Symbol
		}
		return result[i].EntryTS.Before(result[j].EntryTS)
	})

	return result, nil
}

var _ storage.LegStore = (*LegStore)(nil)
