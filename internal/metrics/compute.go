package metrics

import (
	"sort"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// pct returns value / base * 100, or nil when base is zero.
func pct(value, base float64) *float64 {
	if base == 0 {
		return nil
	}
	v := value / base * 100
	return &v
}

// computeMean calculates the arithmetic mean of the present values.
// Nil values are skipped; returns nil if none are present.
func computeMean(values []*float64) *float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// realizedPnL sums realized PnL of closed legs.
// Legs are summed in (symbol, entry_ts) order so the float result does not
// depend on store ordering.
func realizedPnL(legs []*domain.Leg) float64 {
	sorted := make([]*domain.Leg, 0, len(legs))
	for _, l := range legs {
		if l != nil {
			sorted = append(sorted, l)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Symbol != sorted[j].Symbol {
			return sorted[i].Symbol < sorted[j].Symbol
		}
		return sorted[i].EntryTS.Before(sorted[j].EntryTS)
	})

	total := 0.0
	for _, l := range sorted {
		if pnl, ok := l.RealizedPnL(); ok {
			total += pnl
		}
	}
	return total
}

// worstGap returns the most negative equity - peak across points, or 0.
func worstGap(points []domain.EquityPoint) float64 {
	worst := 0.0
	for _, p := range points {
		if gap := p.Equity - p.PeakEquity; gap < worst {
			worst = gap
		}
	}
	return worst
}
