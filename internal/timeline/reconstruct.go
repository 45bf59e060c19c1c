// Package timeline rebuilds a run's equity curve from mark-to-market
// snapshots and realized leg closures.
package timeline

import (
	"sort"
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// Reconstruct merges a run's snapshots and legs into one equity curve.
//
// One point is emitted per distinct snapshot timestamp, ascending. At each
// sample t the unrealized component is the sum over symbols of the latest mark
// at or before t, and the realized component is the PnL of every leg whose
// exit is at or before t. Marks of a symbol are dropped once its position has
// been realized and not reopened, so a closed leg is never counted twice.
//
// Inputs may arrive in any order and may contain retransmitted snapshots;
// the result is a deterministic function of the input set. An empty slice is
// returned when there are no snapshots.
func Reconstruct(initialInvestment float64, snapshots []*domain.Snapshot, legs []*domain.Leg) []domain.EquityPoint {
	sorted := DedupeSnapshots(snapshots)
	samples := SampleTimestamps(sorted)
	if len(samples) == 0 {
		return []domain.EquityPoint{}
	}

	positions := newPositionBook(legs)
	closures := sortClosures(legs)
	symbols := distinctSymbols(sorted)

	type mark struct {
		pnl float64
		ts  time.Time
	}
	marks := make(map[string]mark, len(symbols))

	points := make([]domain.EquityPoint, 0, len(samples))
	snapIdx := 0
	closeIdx := 0
	realized := 0.0

	for _, t := range samples {
		// Marks observed exactly at t
		for snapIdx < len(sorted) && !sorted[snapIdx].TS.After(t) {
			s := sorted[snapIdx]
			snapIdx++
			if !positions.openAt(s.Symbol, s.TS) {
				continue
			}
			marks[s.Symbol] = mark{pnl: s.UnrealizedPnL, ts: s.TS}
		}

		// Closures up to and including t; never back-dated, never early
		for closeIdx < len(closures) && !closures[closeIdx].ts.After(t) {
			c := closures[closeIdx]
			closeIdx++
			realized += c.pnl
			if m, ok := marks[c.symbol]; ok && !m.ts.After(c.ts) {
				delete(marks, c.symbol)
			}
		}

		bySymbol := make(map[string]float64, len(marks))
		unrealized := 0.0
		for _, sym := range symbols {
			m, ok := marks[sym]
			if !ok {
				continue
			}
			bySymbol[sym] = m.pnl
			unrealized += m.pnl
		}

		points = append(points, domain.EquityPoint{
			TS:                 t,
			UnrealizedBySymbol: bySymbol,
			UnrealizedPnL:      unrealized,
			RealizedPnL:        realized,
			Equity:             initialInvestment + realized + unrealized,
		})
	}

	return points
}

// Symbols returns the sorted set of symbols with at least one snapshot.
func Symbols(snapshots []*domain.Snapshot) []string {
	return distinctSymbols(snapshots)
}

func distinctSymbols(snapshots []*domain.Snapshot) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		if _, ok := seen[s.Symbol]; ok {
			continue
		}
		seen[s.Symbol] = struct{}{}
		out = append(out, s.Symbol)
	}
	sort.Strings(out)
	return out
}

// positionBook answers whether a symbol was part of the open position set at a time.
type positionBook struct {
	bySymbol map[string][]*domain.Leg // ordered by entry_ts ASC
}

func newPositionBook(legs []*domain.Leg) *positionBook {
	b := &positionBook{bySymbol: make(map[string][]*domain.Leg)}
	for _, l := range legs {
		if l == nil {
			continue
		}
		b.bySymbol[l.Symbol] = append(b.bySymbol[l.Symbol], l)
	}
	for _, ls := range b.bySymbol {
		sort.SliceStable(ls, func(i, j int) bool {
			return ls[i].EntryTS.Before(ls[j].EntryTS)
		})
	}
	return b
}

// openAt reports whether a mark for symbol at ts belongs to an unrealized position.
// A symbol without leg records is trusted as open. Otherwise the leg entered
// most recently at or before ts decides: open legs pass, closed legs pass only
// before their exit, and a closed leg without an exit timestamp never passes.
func (b *positionBook) openAt(symbol string, ts time.Time) bool {
	ls := b.bySymbol[symbol]
	if len(ls) == 0 {
		return true
	}

	var current *domain.Leg
	for _, l := range ls {
		if l.EntryTS.After(ts) {
			break
		}
		current = l
	}
	if current == nil {
		current = ls[0]
		if current.Status == domain.LegStatusClosed && current.ExitTS == nil {
			return false
		}
		return true
	}

	if current.Status != domain.LegStatusClosed {
		return true
	}
	if current.ExitTS == nil {
		return false
	}
	return ts.Before(*current.ExitTS)
}
