package metrics

import (
	"context"
	"testing"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

func paperRun(id, tag string, initial float64, status domain.RunStatus, startMin int) *domain.Run {
	return &domain.Run{
		RunID:             id,
		Mode:              domain.ModePaper,
		Status:            status,
		StrategyTag:       tag,
		StartTS:           at(startMin),
		InitialInvestment: initial,
	}
}

// Three matching runs, one with zero initial investment, plus decoys.
func seedAggregateRuns(t *testing.T) *fixture {
	f := newFixture()

	// +100 realized, flat marks: final 10%, dd 0%, peak 10%
	f.addRun(t, paperRun("r1", "S1", 1000, domain.RunStatusCompleted, 0),
		[]*domain.Snapshot{snap("r1", 10, "AAAUSDT", 0), snap("r1", 20, "AAAUSDT", 0)},
		[]*domain.Leg{closedLeg("r1", "BBBUSDT", 0, 15, 2, 1, 100)})

	// 1100 then 900: final 0%, dd -20% of initial, peak 10%
	f.addRun(t, paperRun("r2", "s1", 1000, domain.RunStatusCompleted, 1),
		[]*domain.Snapshot{snap("r2", 10, "AAAUSDT", 100), snap("r2", 20, "AAAUSDT", -100)},
		nil)

	// initial 0: every percentage undefined
	f.addRun(t, paperRun("r3", "S1", 0, domain.RunStatusCompleted, 2),
		[]*domain.Snapshot{snap("r3", 10, "AAAUSDT", 50), snap("r3", 20, "AAAUSDT", 25)},
		nil)

	live := paperRun("r4", "S1", 1000, domain.RunStatusCompleted, 3)
	live.Mode = domain.ModeLive
	f.addRun(t, live, []*domain.Snapshot{snap("r4", 10, "AAAUSDT", -500)}, nil)

	f.addRun(t, paperRun("r5", "S1", 1000, domain.RunStatusRunning, 4),
		[]*domain.Snapshot{snap("r5", 10, "AAAUSDT", -500)}, nil)

	f.addRun(t, paperRun("r6", "S2", 1000, domain.RunStatusCompleted, 5),
		[]*domain.Snapshot{snap("r6", 10, "AAAUSDT", -500)}, nil)

	return f
}

func TestComputeAggregate_ZeroInitialExcludedPerMetric(t *testing.T) {
	ctx := context.Background()
	f := seedAggregateRuns(t)
	agg := NewAggregator(f.runs, NewStoreSummarizer(f.legs, f.snaps))

	paper := domain.ModePaper
	tag := "S1"
	res, err := agg.ComputeAggregate(ctx, domain.RunFilter{Mode: &paper, StrategyTag: &tag})
	if err != nil {
		t.Fatalf("ComputeAggregate failed: %v", err)
	}

	if res.RunCount != 3 {
		t.Fatalf("expected 3 runs, got %d", res.RunCount)
	}
	assertPtr(t, "avg final", res.AvgFinalPnLPct, 5)
	assertPtr(t, "avg max dd", res.AvgMaxDDPct, -10)
	assertPtr(t, "avg peak", res.AvgPeakPnLPct, 10)
}

func TestComputeAggregate_NoMatchingRuns(t *testing.T) {
	ctx := context.Background()
	f := seedAggregateRuns(t)
	agg := NewAggregator(f.runs, NewStoreSummarizer(f.legs, f.snaps))

	tag := "S9"
	res, err := agg.ComputeAggregate(ctx, domain.RunFilter{StrategyTag: &tag})
	if err != nil {
		t.Fatalf("ComputeAggregate failed: %v", err)
	}

	if res.RunCount != 0 {
		t.Errorf("expected 0 runs, got %d", res.RunCount)
	}
	assertNil(t, "avg final", res.AvgFinalPnLPct)
	assertNil(t, "avg max dd", res.AvgMaxDDPct)
	assertNil(t, "avg peak", res.AvgPeakPnLPct)
}

func TestSelectRuns_CompletedOnly(t *testing.T) {
	ctx := context.Background()
	f := seedAggregateRuns(t)
	agg := NewAggregator(f.runs, NewStoreSummarizer(f.legs, f.snaps))

	runs, err := agg.SelectRuns(ctx, domain.RunFilter{})
	if err != nil {
		t.Fatalf("SelectRuns failed: %v", err)
	}

	want := []string{"r6", "r4", "r3", "r2", "r1"}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, id := range want {
		if runs[i].RunID != id {
			t.Errorf("index %d: expected %s, got %s", i, id, runs[i].RunID)
		}
	}
}

func TestComputeAggregate_Deterministic(t *testing.T) {
	ctx := context.Background()
	f := seedAggregateRuns(t)
	agg := NewAggregator(f.runs, NewStoreSummarizer(f.legs, f.snaps))

	first, err := agg.ComputeAggregate(ctx, domain.RunFilter{})
	if err != nil {
		t.Fatalf("ComputeAggregate failed: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := agg.ComputeAggregate(ctx, domain.RunFilter{})
		if err != nil {
			t.Fatalf("Run %d: ComputeAggregate failed: %v", run, err)
		}
		if *again.AvgMaxDDPct != *first.AvgMaxDDPct || *again.AvgFinalPnLPct != *first.AvgFinalPnLPct {
			t.Errorf("Run %d: results differ", run)
		}
	}
}
