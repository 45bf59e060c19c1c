package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// LegStore implements storage.LegStore using PostgreSQL.
type LegStore struct {
	pool *Pool
}

// NewLegStore creates a new LegStore.
func NewLegStore(pool *Pool) *LegStore {
	return &LegStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LegStore = (*LegStore)(nil)

// Insert adds a new leg. Returns ErrDuplicateKey if the symbol already has an
// open leg in the run (partial unique index), ErrInvalidInput on exit field
// violations or an unknown run.
func (s *LegStore) Insert(ctx context.Context, l *domain.Leg) (err error) {
	if l == nil || l.RunID == "" || l.Symbol == "" {
		return storage.ErrInvalidInput
	}
	defer observe("legs_insert", time.Now(), &err)

	query := `
		INSERT INTO legs (
			run_id, symbol, status, entry_price, exit_price, qty, entry_ts, exit_ts,
			margin, max_favorable_pnl, max_adverse_pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.pool.Exec(ctx, query,
		l.RunID, l.Symbol, string(l.Status), l.EntryPrice, l.ExitPrice, l.Qty, l.EntryTS.UTC(), utcPtr(l.ExitTS),
		l.Margin, l.MaxFavorablePnL, l.MaxAdversePnL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert leg: %w", err)
	}
	return nil
}

// GetByRunID retrieves all legs of a run, ordered by symbol ASC, entry_ts ASC.
func (s *LegStore) GetByRunID(ctx context.Context, runID string) (_ []*domain.Leg, err error) {
	defer observe("legs_by_run", time.Now(), &err)

	query := `
		SELECT
			run_id, symbol, status, entry_price, exit_price, qty, entry_ts, exit_ts,
			margin, max_favorable_pnl, max_adverse_pnl
		FROM legs
		WHERE run_id = $1
		ORDER BY symbol ASC, entry_ts ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get legs by run id: %w", err)
	}
	defer rows.Close()

	return scanLegs(rows)
}

func scanLegs(rows pgx.Rows) ([]*domain.Leg, error) {
	legs := make([]*domain.Leg, 0)

	for rows.Next() {
		var l domain.Leg
		var status string

		err := rows.Scan(
			&l.RunID, &l.Symbol, &status, &l.EntryPrice, &l.ExitPrice, &l.Qty, &l.EntryTS, &l.ExitTS,
			&l.Margin, &l.MaxFavorablePnL, &l.MaxAdversePnL,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leg row: %w", err)
		}

		l.Status = domain.LegStatus(status)
		l.EntryTS = l.EntryTS.UTC()
		l.ExitTS = utcPtr(l.ExitTS)
		legs = append(legs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leg rows: %w", err)
	}
	return legs, nil
}
