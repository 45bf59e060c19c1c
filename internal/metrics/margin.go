package metrics

import (
	"sort"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// UsedMargin returns the margin currently committed by a run's open legs.
//
// Live runs report margin on each snapshot; the latest snapshot carrying a
// margin is used per open symbol. Paper runs use each open leg's own margin
// and fall back to the run's margin_per_leg for legs without one.
func UsedMargin(run *domain.Run, legs []*domain.Leg, snapshots []*domain.Snapshot) float64 {
	open := openLegs(legs)

	if run.Mode == domain.ModeLive {
		latest := latestMargins(snapshots)
		total := 0.0
		for _, sym := range sortedSymbols(open) {
			total += latest[sym]
		}
		return total
	}

	total := 0.0
	for _, sym := range sortedSymbols(open) {
		for _, l := range open[sym] {
			if l.Margin != nil {
				total += *l.Margin
			} else {
				total += run.MarginPerLeg
			}
		}
	}
	return total
}

func openLegs(legs []*domain.Leg) map[string][]*domain.Leg {
	open := make(map[string][]*domain.Leg)
	for _, l := range legs {
		if l != nil && l.Status == domain.LegStatusOpen {
			open[l.Symbol] = append(open[l.Symbol], l)
		}
	}
	return open
}

func sortedSymbols(m map[string][]*domain.Leg) []string {
	out := make([]string, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// latestMargins returns, per symbol, the margin of the newest snapshot that
// has one. Ties on ts keep the first seen.
func latestMargins(snapshots []*domain.Snapshot) map[string]float64 {
	type seen struct {
		margin float64
		snap   *domain.Snapshot
	}
	best := make(map[string]seen)
	for _, s := range snapshots {
		if s == nil || s.Margin == nil {
			continue
		}
		if cur, ok := best[s.Symbol]; ok && !s.TS.After(cur.snap.TS) {
			continue
		}
		best[s.Symbol] = seen{margin: *s.Margin, snap: s}
	}

	out := make(map[string]float64, len(best))
	for sym, b := range best {
		out[sym] = b.margin
	}
	return out
}
