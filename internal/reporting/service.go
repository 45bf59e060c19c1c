// Package reporting serves run timeseries, summaries and aggregates over the
// record stores, and renders them for the report CLI.
package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/drawdown"
	"github.com/steveuk2021/thescammershort/internal/metrics"
	"github.com/steveuk2021/thescammershort/internal/observability"
	"github.com/steveuk2021/thescammershort/internal/storage"
	"github.com/steveuk2021/thescammershort/internal/timeline"
)

// SummaryCache stores summaries of completed runs.
type SummaryCache interface {
	// Get returns the cached summary, or ok=false on a miss.
	Get(ctx context.Context, runID string) (s *domain.RunSummary, ok bool, err error)
	Set(ctx context.Context, s *domain.RunSummary) error
}

// Service answers reporting queries from stored data.
type Service struct {
	runs       storage.RunStore
	legs       storage.LegStore
	snapshots  storage.SnapshotStore
	cache      SummaryCache
	aggregator *metrics.Aggregator
	logger     *zap.Logger
	now        func() time.Time // Injectable clock for deterministic output
}

// NewService creates a new reporting service.
func NewService(runs storage.RunStore, legs storage.LegStore, snapshots storage.SnapshotStore) *Service {
	s := &Service{
		runs:      runs,
		legs:      legs,
		snapshots: snapshots,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.aggregator = metrics.NewAggregator(runs, s)
	return s
}

// WithCache enables the summary cache.
func (s *Service) WithCache(c SummaryCache) *Service {
	s.cache = c
	return s
}

// WithLogger sets the logger.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.logger = l
	return s
}

// WithClock sets a custom clock function for deterministic output.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetRun returns a run record. Wraps storage.ErrNotFound.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	r, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// GetLatestRun returns the most recently started run, optionally of one mode.
func (s *Service) GetLatestRun(ctx context.Context, mode *domain.Mode) (*domain.Run, error) {
	r, err := s.runs.GetLatest(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return r, nil
}

// resolveRun returns the named run, or the latest run when runID is empty.
func (s *Service) resolveRun(ctx context.Context, runID string) (*domain.Run, error) {
	if runID == "" {
		return s.GetLatestRun(ctx, nil)
	}
	return s.GetRun(ctx, runID)
}

func (s *Service) load(ctx context.Context, runID string) ([]*domain.Leg, []*domain.Snapshot, error) {
	legs, err := s.legs.GetByRunID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load legs: %w", err)
	}
	snaps, err := s.snapshots.GetByRunID(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshots: %w", err)
	}
	return legs, snaps, nil
}

func (s *Service) buildCurve(run *domain.Run, legs []*domain.Leg, snaps []*domain.Snapshot) drawdown.Result {
	start := time.Now()
	curve := metrics.BuildCurve(run.InitialInvestment, snaps, legs)
	observability.RecordEngine("curve", time.Since(start).Seconds())
	observability.RecordCurve(len(curve.Points))
	return curve
}

// GetRunTimeseries reconstructs the equity curve of a run.
func (s *Service) GetRunTimeseries(ctx context.Context, runID string) (*Timeseries, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	legs, snaps, err := s.load(ctx, runID)
	if err != nil {
		return nil, err
	}

	curve := s.buildCurve(run, legs, snaps)
	symbols := timeline.Symbols(snaps)
	if symbols == nil {
		symbols = []string{}
	}

	return &Timeseries{
		RunID:              run.RunID,
		InitialInvestment:  run.InitialInvestment,
		Symbols:            symbols,
		Points:             curve.Points,
		CurrentDrawdownPct: curve.CurrentDrawdownPct,
		MaxDrawdownPct:     curve.MaxDrawdownPct,
		Empty:              curve.Empty,
	}, nil
}

// GetRunSummary returns the summary of a run.
func (s *Service) GetRunSummary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, run)
}

// Summarize computes a run's summary, consulting the cache for completed runs.
// Cache failures are logged and fall through to computation.
func (s *Service) Summarize(ctx context.Context, run *domain.Run) (*domain.RunSummary, error) {
	cacheable := s.cache != nil && run.Completed()

	if cacheable {
		cached, ok, err := s.cache.Get(ctx, run.RunID)
		switch {
		case err != nil:
			observability.RecordCacheError("get")
			s.logger.Warn("summary cache get failed", zap.String("run_id", run.RunID), zap.Error(err))
		case ok:
			observability.RecordCacheLookup(true)
			return cached, nil
		default:
			observability.RecordCacheLookup(false)
		}
	}

	legs, snaps, err := s.load(ctx, run.RunID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	summary := metrics.Summarize(run, legs, s.buildCurve(run, legs, snaps))
	observability.RecordEngine("summary", time.Since(start).Seconds())

	if cacheable {
		if err := s.cache.Set(ctx, summary); err != nil {
			observability.RecordCacheError("set")
			s.logger.Warn("summary cache set failed", zap.String("run_id", run.RunID), zap.Error(err))
		}
	}
	return summary, nil
}

// GetRunDetail returns the run, its legs with realized PnL, and its summary.
func (s *Service) GetRunDetail(ctx context.Context, runID string) (*RunDetail, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	legs, err := s.legs.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load legs: %w", err)
	}
	summary, err := s.Summarize(ctx, run)
	if err != nil {
		return nil, err
	}

	details := make([]LegDetail, len(legs))
	for i, l := range legs {
		details[i] = LegDetail{Leg: l}
		if pnl, ok := l.RealizedPnL(); ok {
			details[i].FinalPnL = &pnl
		}
	}

	return &RunDetail{Run: run, Legs: details, Summary: summary}, nil
}

// ListReportRows returns one row per completed run matching filter.
func (s *Service) ListReportRows(ctx context.Context, filter domain.RunFilter) ([]ReportRow, error) {
	runs, err := s.aggregator.SelectRuns(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(runs))
	for _, r := range runs {
		summary, err := s.Summarize(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("summarize run %s: %w", r.RunID, err)
		}
		rows = append(rows, ReportRow{
			RunID:             r.RunID,
			Mode:              r.Mode,
			StrategyTag:       r.StrategyTag,
			StartTS:           r.StartTS,
			EndTS:             r.EndTS,
			DurationHours:     r.DurationHours(),
			CloseReason:       r.CloseReason,
			InitialInvestment: r.InitialInvestment,
			FinalPnL:          summary.FinalPnL,
			FinalPnLPct:       summary.FinalPnLPct,
			MaxDrawdown:       summary.MaxDrawdown,
			MaxDrawdownPct:    summary.MaxDrawdownPct,
			PeakPnL:           summary.PeakPnL,
			PeakPnLPct:        summary.PeakPnLPct,
		})
	}
	return rows, nil
}

// GetAggregate averages percentage metrics over completed runs matching filter.
func (s *Service) GetAggregate(ctx context.Context, filter domain.RunFilter) (*domain.AggregateSummary, error) {
	start := time.Now()
	agg, err := s.aggregator.ComputeAggregate(ctx, filter)
	if err != nil {
		return nil, err
	}
	observability.RecordEngine("aggregate", time.Since(start).Seconds())
	return agg, nil
}

// GetPortfolio returns the current state of a run; empty runID selects the latest run.
func (s *Service) GetPortfolio(ctx context.Context, runID string) (*Portfolio, error) {
	run, err := s.resolveRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	legs, snaps, err := s.load(ctx, run.RunID)
	if err != nil {
		return nil, err
	}

	curve := s.buildCurve(run, legs, snaps)
	unrealized := metrics.OpenUnrealized(legs, snaps)
	realized := metrics.RealizedPnL(legs)
	total := realized + unrealized

	balance := run.InitialInvestment + total
	if run.CurrentBalance != nil {
		balance = *run.CurrentBalance
	}

	open := 0
	for _, l := range legs {
		if l.Status == domain.LegStatusOpen {
			open++
		}
	}

	return &Portfolio{
		RunID:              run.RunID,
		Mode:               run.Mode,
		UnrealizedPnL:      unrealized,
		RealizedPnL:        realized,
		TotalPnL:           total,
		CurrentBalance:     balance,
		UsedMargin:         metrics.UsedMargin(run, legs, snaps),
		OpenPositions:      open,
		CurrentDrawdownPct: curve.CurrentDrawdownPct,
		MaxDrawdownPct:     curve.MaxDrawdownPct,
		Empty:              curve.Empty,
	}, nil
}

// OpenPositions returns open legs with their latest marks; empty runID selects the latest run.
func (s *Service) OpenPositions(ctx context.Context, runID string) (string, []Position, error) {
	run, err := s.resolveRun(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	legs, snaps, err := s.load(ctx, run.RunID)
	if err != nil {
		return "", nil, err
	}

	marks := metrics.LatestMarks(snaps)
	positions := make([]Position, 0, len(legs))
	for _, l := range legs {
		if l.Status != domain.LegStatusOpen {
			continue
		}
		p := Position{
			Symbol:     l.Symbol,
			EntryPrice: l.EntryPrice,
			Qty:        l.Qty,
			EntryTS:    l.EntryTS,
			Margin:     l.Margin,
		}
		if m, ok := marks[l.Symbol]; ok && !m.TS.Before(l.EntryTS) {
			price, pnl, ts := m.Price, m.UnrealizedPnL, m.TS
			p.MarkPrice, p.UnrealizedPnL, p.MarkTS = &price, &pnl, &ts
		}
		positions = append(positions, p)
	}
	return run.RunID, positions, nil
}

// Legs returns all legs of a run.
func (s *Service) Legs(ctx context.Context, runID string) ([]*domain.Leg, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	legs, err := s.legs.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load legs: %w", err)
	}
	return legs, nil
}

// LatestSnapshots returns up to limit of a run's newest snapshots.
func (s *Service) LatestSnapshots(ctx context.Context, runID string, limit int) ([]*domain.Snapshot, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	snaps, err := s.snapshots.GetLatest(ctx, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("load latest snapshots: %w", err)
	}
	return snaps, nil
}

// Generate produces a complete runs report for filter.
func (s *Service) Generate(ctx context.Context, filter domain.RunFilter) (*Report, error) {
	rows, err := s.ListReportRows(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.RunSummary, len(rows))
	for i, r := range rows {
		summaries[i] = &domain.RunSummary{
			RunID:          r.RunID,
			FinalPnLPct:    r.FinalPnLPct,
			MaxDrawdownPct: r.MaxDrawdownPct,
			PeakPnLPct:     r.PeakPnLPct,
		}
	}

	observability.RecordReportGenerated()
	return &Report{
		GeneratedAt: s.now(),
		Filter:      filter,
		Rows:        rows,
		Aggregate:   metrics.Aggregate(summaries),
	}, nil
}

var _ metrics.Summarizer = (*Service)(nil)
