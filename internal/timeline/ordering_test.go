package timeline

import (
	"testing"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

func TestDedupeSnapshots_KeepsFirstSeen(t *testing.T) {
	snaps := []*domain.Snapshot{
		snap(20, "AAAUSDT", 2),
		snap(10, "AAAUSDT", 1),
		snap(20, "AAAUSDT", 99),
		snap(10, "BBBUSDT", 3),
	}

	got := DedupeSnapshots(snaps)
	if len(got) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(got))
	}

	want := []struct {
		minute int
		symbol string
		pnl    float64
	}{
		{10, "AAAUSDT", 1},
		{10, "BBBUSDT", 3},
		{20, "AAAUSDT", 2},
	}
	for i, w := range want {
		if !got[i].TS.Equal(at(w.minute)) || got[i].Symbol != w.symbol || got[i].UnrealizedPnL != w.pnl {
			t.Errorf("index %d: got (%v, %s, %f), want (%d, %s, %f)",
				i, got[i].TS, got[i].Symbol, got[i].UnrealizedPnL, w.minute, w.symbol, w.pnl)
		}
	}

	// Input untouched
	if snaps[0].UnrealizedPnL != 2 || snaps[2].UnrealizedPnL != 99 {
		t.Error("input slice was modified")
	}
}

func TestSampleTimestamps_Distinct(t *testing.T) {
	sorted := DedupeSnapshots([]*domain.Snapshot{
		snap(10, "AAAUSDT", 0),
		snap(10, "BBBUSDT", 0),
		snap(20, "AAAUSDT", 0),
	})

	ts := SampleTimestamps(sorted)
	if len(ts) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(ts))
	}
	if !ts[0].Equal(at(10)) || !ts[1].Equal(at(20)) {
		t.Errorf("unexpected timestamps: %v", ts)
	}
}

func TestSortClosures_ByExitTime(t *testing.T) {
	legs := []*domain.Leg{
		closedLeg("BBBUSDT", 0, 30, 2, 1, 1),
		openLeg("CCCUSDT", 0),
		closedLeg("AAAUSDT", 0, 10, 3, 1, 1),
	}

	got := sortClosures(legs)
	if len(got) != 2 {
		t.Fatalf("expected 2 closures, got %d", len(got))
	}
	if got[0].symbol != "AAAUSDT" || got[1].symbol != "BBBUSDT" {
		t.Errorf("unexpected order: %s, %s", got[0].symbol, got[1].symbol)
	}
	if got[0].pnl != 2 {
		t.Errorf("expected pnl 2, got %f", got[0].pnl)
	}
}
