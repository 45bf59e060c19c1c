package metrics

import (
	"testing"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

func TestSummarize_ClosureBetweenSamples(t *testing.T) {
	run := &domain.Run{RunID: "r1", Mode: domain.ModePaper, InitialInvestment: 1000}
	snaps := []*domain.Snapshot{snap("r1", 10, "AAAUSDT", 50), snap("r1", 20, "AAAUSDT", -30)}
	legs := []*domain.Leg{closedLeg("r1", "BBBUSDT", 0, 15, 1.2, 1.0, 100)}

	curve := BuildCurve(run.InitialInvestment, snaps, legs)
	s := Summarize(run, legs, curve)

	if s.RunID != "r1" || s.Points != 2 {
		t.Errorf("unexpected identity: %+v", s)
	}
	if !approx(s.FinalPnL, 20) {
		t.Errorf("expected final pnl 20, got %f", s.FinalPnL)
	}
	assertPtr(t, "final pct", s.FinalPnLPct, 2)
	assertPtr(t, "max dd", s.MaxDrawdown, -60)
	assertPtr(t, "max dd pct", s.MaxDrawdownPct, -6)
	assertPtr(t, "max dd peak pct", s.MaxDrawdownPeakPct, -60.0/1050.0*100)
	assertPtr(t, "peak pnl", s.PeakPnL, 50)
	assertPtr(t, "peak pct", s.PeakPnLPct, 5)
	if !approx(s.CurrentDrawdownPct, -60.0/1050.0*100) {
		t.Errorf("unexpected current drawdown %f", s.CurrentDrawdownPct)
	}
}

func TestSummarize_EmptyCurve(t *testing.T) {
	run := &domain.Run{RunID: "r1", InitialInvestment: 1000}

	s := Summarize(run, nil, BuildCurve(1000, nil, nil))

	if s.Points != 0 {
		t.Errorf("expected 0 points, got %d", s.Points)
	}
	assertPtr(t, "final pct", s.FinalPnLPct, 0)
	assertNil(t, "max dd", s.MaxDrawdown)
	assertNil(t, "max dd pct", s.MaxDrawdownPct)
	assertNil(t, "max dd peak pct", s.MaxDrawdownPeakPct)
	assertNil(t, "peak pnl", s.PeakPnL)
	assertNil(t, "peak pct", s.PeakPnLPct)
	if s.CurrentDrawdownPct != 0 {
		t.Errorf("expected 0 current drawdown, got %f", s.CurrentDrawdownPct)
	}
}

func TestSummarize_ZeroInitialInvestment(t *testing.T) {
	run := &domain.Run{RunID: "r1", InitialInvestment: 0}
	snaps := []*domain.Snapshot{snap("r1", 10, "AAAUSDT", 50), snap("r1", 20, "AAAUSDT", 25)}

	s := Summarize(run, nil, BuildCurve(0, snaps, nil))

	assertNil(t, "final pct", s.FinalPnLPct)
	assertNil(t, "peak pct", s.PeakPnLPct)
	assertPtr(t, "peak pnl", s.PeakPnL, 50)
	assertPtr(t, "max dd", s.MaxDrawdown, -25)
	assertNil(t, "max dd pct", s.MaxDrawdownPct)
	assertPtr(t, "max dd peak pct", s.MaxDrawdownPeakPct, -50)
}

func TestSummarize_DrawdownPctUsesInitialInvestment(t *testing.T) {
	run := &domain.Run{RunID: "r1", InitialInvestment: 1000}
	snaps := []*domain.Snapshot{snap("r1", 10, "AAAUSDT", 50), snap("r1", 20, "AAAUSDT", -30)}

	s := Summarize(run, nil, BuildCurve(1000, snaps, nil))

	assertPtr(t, "max dd", s.MaxDrawdown, -80)
	assertPtr(t, "max dd pct", s.MaxDrawdownPct, -8)
	assertPtr(t, "max dd peak pct", s.MaxDrawdownPeakPct, -80.0/1050.0*100)
}

func TestRealizedPnL_SkipsOpenAndIncomplete(t *testing.T) {
	legs := []*domain.Leg{
		closedLeg("r1", "BBBUSDT", 0, 10, 2, 1, 5), // +5
		closedLeg("r1", "AAAUSDT", 0, 10, 1, 2, 3), // -3
		{RunID: "r1", Symbol: "CCCUSDT", Status: domain.LegStatusOpen, EntryPrice: 1, Qty: 1, EntryTS: at(0)},
		nil,
	}
	if got := realizedPnL(legs); !approx(got, 2) {
		t.Errorf("expected 2, got %f", got)
	}
}

func TestComputeMean_SkipsNil(t *testing.T) {
	if got := computeMean(nil); got != nil {
		t.Errorf("expected nil for no values, got %f", *got)
	}
	if got := computeMean([]*float64{nil, nil}); got != nil {
		t.Errorf("expected nil for all-nil values, got %f", *got)
	}
	assertPtr(t, "mean", computeMean([]*float64{ptr(1.0), nil, ptr(3.0)}), 2)
}
