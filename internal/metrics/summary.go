package metrics

import (
	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/drawdown"
	"github.com/steveuk2021/thescammershort/internal/timeline"
)

// BuildCurve reconstructs a run's equity curve and fills peak and drawdown on
// every point.
func BuildCurve(initialInvestment float64, snapshots []*domain.Snapshot, legs []*domain.Leg) drawdown.Result {
	points := timeline.Reconstruct(initialInvestment, snapshots, legs)
	return drawdown.Apply(initialInvestment, points)
}

// Summarize derives the headline metrics of a run from its legs and curve.
//
// Final PnL is the realized PnL of closed legs. Drawdown and peak metrics
// come from the curve and are nil when the curve is empty. Percentages of
// initial investment are nil when the initial investment is zero. The
// peak-relative drawdown stays defined whenever the curve is non-empty.
func Summarize(run *domain.Run, legs []*domain.Leg, curve drawdown.Result) *domain.RunSummary {
	initial := run.InitialInvestment
	final := realizedPnL(legs)

	s := &domain.RunSummary{
		RunID:              run.RunID,
		InitialInvestment:  initial,
		FinalPnL:           final,
		FinalPnLPct:        pct(final, initial),
		CurrentDrawdownPct: curve.CurrentDrawdownPct,
		Points:             len(curve.Points),
	}
	if curve.Empty {
		return s
	}

	maxDD := worstGap(curve.Points)
	peakRel := curve.MaxDrawdownPct
	peakPnL := curve.PeakEquity - initial

	s.MaxDrawdown = &maxDD
	s.MaxDrawdownPct = pct(maxDD, initial)
	s.MaxDrawdownPeakPct = &peakRel
	s.PeakPnL = &peakPnL
	s.PeakPnLPct = pct(peakPnL, initial)
	return s
}
