package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, exchange, mode, status, strategy_tag, start_ts, end_ts,
	num_legs, margin_per_leg, leverage,
	initial_investment, current_balance, close_reason
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer observe("runs_insert", time.Now(), &err)

	query := `INSERT INTO runs (` + runColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.Exchange, string(r.Mode), string(r.Status), r.StrategyTag, r.StartTS.UTC(), utcPtr(r.EndTS),
		r.NumLegs, r.MarginPerLeg, r.Leverage,
		r.InitialInvestment, r.CurrentBalance, r.CloseReason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (_ *domain.Run, err error) {
	defer observe("runs_get", time.Now(), &err)

	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetLatest retrieves the most recently started run, optionally restricted to mode.
func (s *RunStore) GetLatest(ctx context.Context, mode *domain.Mode) (_ *domain.Run, err error) {
	defer observe("runs_latest", time.Now(), &err)

	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if mode != nil {
		query += ` WHERE mode = $1`
		args = append(args, string(*mode))
	}
	query += ` ORDER BY start_ts DESC, run_id DESC LIMIT 1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return r, nil
}

// List retrieves runs matching filter, ordered by start_ts DESC, run_id ASC.
func (s *RunStore) List(ctx context.Context, filter domain.RunFilter) (_ []*domain.Run, err error) {
	defer observe("runs_list", time.Now(), &err)

	where, args := filterClause(filter)
	query := `SELECT ` + runColumns + ` FROM runs` + where + ` ORDER BY start_ts DESC, run_id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return result, nil
}

// filterClause renders the WHERE clause and positional args for filter.
func filterClause(f domain.RunFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Mode != nil {
		add("mode = $%d", string(*f.Mode))
	}
	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.StrategyTag != nil {
		add("lower(strategy_tag) = lower($%d)", *f.StrategyTag)
	}
	if f.DateFrom != nil {
		add("start_ts >= $%d", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		add("start_ts <= $%d", f.DateTo.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var r domain.Run
	var mode, status string

	err := row.Scan(
		&r.RunID, &r.Exchange, &mode, &status, &r.StrategyTag, &r.StartTS, &r.EndTS,
		&r.NumLegs, &r.MarginPerLeg, &r.Leverage,
		&r.InitialInvestment, &r.CurrentBalance, &r.CloseReason,
	)
	if err != nil {
		return nil, err
	}

	r.Mode = domain.Mode(mode)
	r.Status = domain.RunStatus(status)
	r.StartTS = r.StartTS.UTC()
	r.EndTS = utcPtr(r.EndTS)
	return &r, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
