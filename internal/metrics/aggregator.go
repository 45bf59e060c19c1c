package metrics

import (
	"context"
	"fmt"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// Summarizer produces the RunSummary of a single run.
type Summarizer interface {
	Summarize(ctx context.Context, run *domain.Run) (*domain.RunSummary, error)
}

// StoreSummarizer loads a run's legs and snapshots and summarizes them.
type StoreSummarizer struct {
	legs      storage.LegStore
	snapshots storage.SnapshotStore
}

// NewStoreSummarizer creates a summarizer reading from the given stores.
func NewStoreSummarizer(legs storage.LegStore, snapshots storage.SnapshotStore) *StoreSummarizer {
	return &StoreSummarizer{legs: legs, snapshots: snapshots}
}

// Summarize loads the run's records and computes its summary.
func (s *StoreSummarizer) Summarize(ctx context.Context, run *domain.Run) (*domain.RunSummary, error) {
	legs, err := s.legs.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("load legs: %w", err)
	}
	snaps, err := s.snapshots.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	return Summarize(run, legs, BuildCurve(run.InitialInvestment, snaps, legs)), nil
}

// Aggregator averages percentage metrics across the completed runs selected
// by a filter.
type Aggregator struct {
	runs       storage.RunStore
	summarizer Summarizer
}

// NewAggregator creates a new run aggregator.
func NewAggregator(runs storage.RunStore, summarizer Summarizer) *Aggregator {
	return &Aggregator{runs: runs, summarizer: summarizer}
}

// SelectRuns returns the completed runs matching filter, ordered by start_ts DESC.
func (a *Aggregator) SelectRuns(ctx context.Context, filter domain.RunFilter) ([]*domain.Run, error) {
	completed := domain.RunStatusCompleted
	filter.Status = &completed

	runs, err := a.runs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ComputeAggregate selects runs and averages their summaries.
// Zero selected runs yields RunCount 0 with every average nil.
func (a *Aggregator) ComputeAggregate(ctx context.Context, filter domain.RunFilter) (*domain.AggregateSummary, error) {
	runs, err := a.SelectRuns(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.RunSummary, 0, len(runs))
	for _, r := range runs {
		s, err := a.summarizer.Summarize(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("summarize run %s: %w", r.RunID, err)
		}
		summaries = append(summaries, s)
	}
	return Aggregate(summaries), nil
}

// Aggregate averages each percentage metric over the summaries that define it.
// A summary missing one metric still contributes to the others.
func Aggregate(summaries []*domain.RunSummary) *domain.AggregateSummary {
	finals := make([]*float64, 0, len(summaries))
	dds := make([]*float64, 0, len(summaries))
	peaks := make([]*float64, 0, len(summaries))
	for _, s := range summaries {
		finals = append(finals, s.FinalPnLPct)
		dds = append(dds, s.MaxDrawdownPct)
		peaks = append(peaks, s.PeakPnLPct)
	}

	return &domain.AggregateSummary{
		RunCount:       len(summaries),
		AvgFinalPnLPct: computeMean(finals),
		AvgMaxDDPct:    computeMean(dds),
		AvgPeakPnLPct:  computeMean(peaks),
	}
}
