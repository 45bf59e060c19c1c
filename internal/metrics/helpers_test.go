package metrics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage/memory"
)

var baseTime = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func ptr[T any](v T) *T { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func assertPtr(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s: expected %f, got nil", name, want)
		return
	}
	if !approx(*got, want) {
		t.Errorf("%s: expected %f, got %f", name, want, *got)
	}
}

func assertNil(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s: expected nil, got %f", name, *got)
	}
}

func snap(runID string, minutes int, symbol string, pnl float64) *domain.Snapshot {
	return &domain.Snapshot{RunID: runID, TS: at(minutes), Symbol: symbol, UnrealizedPnL: pnl}
}

func closedLeg(runID, symbol string, entryMin, exitMin int, entry, exit, qty float64) *domain.Leg {
	return &domain.Leg{
		RunID:      runID,
		Symbol:     symbol,
		Status:     domain.LegStatusClosed,
		EntryPrice: entry,
		ExitPrice:  ptr(exit),
		Qty:        qty,
		EntryTS:    at(entryMin),
		ExitTS:     ptr(at(exitMin)),
	}
}

type fixture struct {
	runs  *memory.RunStore
	legs  *memory.LegStore
	snaps *memory.SnapshotStore
}

func newFixture() *fixture {
	return &fixture{
		runs:  memory.NewRunStore(),
		legs:  memory.NewLegStore(),
		snaps: memory.NewSnapshotStore(),
	}
}

func (f *fixture) addRun(t *testing.T, r *domain.Run, snaps []*domain.Snapshot, legs []*domain.Leg) {
	t.Helper()
	ctx := context.Background()
	if err := f.runs.Insert(ctx, r); err != nil {
		t.Fatalf("insert run %s: %v", r.RunID, err)
	}
	if err := f.snaps.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("insert snapshots: %v", err)
	}
	for _, l := range legs {
		if err := f.legs.Insert(ctx, l); err != nil {
			t.Fatalf("insert leg: %v", err)
		}
	}
}
