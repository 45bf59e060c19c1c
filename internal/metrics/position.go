package metrics

import (
	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/timeline"
)

// RealizedPnL sums the realized PnL of a run's closed legs.
func RealizedPnL(legs []*domain.Leg) float64 {
	return realizedPnL(legs)
}

// LatestMarks returns the newest snapshot per symbol. Retransmissions at the
// same (symbol, ts) resolve to the first seen.
func LatestMarks(snapshots []*domain.Snapshot) map[string]*domain.Snapshot {
	latest := make(map[string]*domain.Snapshot)
	for _, s := range timeline.DedupeSnapshots(snapshots) {
		latest[s.Symbol] = s // ascending ts, so later wins
	}
	return latest
}

// OpenUnrealized sums the latest mark of every symbol still held.
// A symbol is held when it has an open leg or no leg records at all.
func OpenUnrealized(legs []*domain.Leg, snapshots []*domain.Snapshot) float64 {
	marks := LatestMarks(snapshots)
	open := openLegs(legs)

	known := make(map[string]struct{}, len(legs))
	for _, l := range legs {
		if l != nil {
			known[l.Symbol] = struct{}{}
		}
	}

	total := 0.0
	for _, sym := range timeline.Symbols(snapshots) {
		_, hasOpen := open[sym]
		_, hasLegs := known[sym]
		if !hasOpen && hasLegs {
			continue
		}
		total += marks[sym].UnrealizedPnL
	}
	return total
}
