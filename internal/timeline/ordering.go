package timeline

import (
	"sort"
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// DedupeSnapshots returns snapshots ordered by (ts ASC, symbol ASC) with
// redundant retransmissions removed. For a repeated (symbol, ts) key the
// earliest element of the input slice wins. The input is not modified.
func DedupeSnapshots(snapshots []*domain.Snapshot) []*domain.Snapshot {
	type seqSnapshot struct {
		snap *domain.Snapshot
		seq  int
	}

	ordered := make([]seqSnapshot, 0, len(snapshots))
	for i, s := range snapshots {
		if s == nil {
			continue
		}
		ordered = append(ordered, seqSnapshot{snap: s, seq: i})
	}

	sort.Slice(ordered, func(i, j int) bool {
		if c := compareSnapshots(ordered[i].snap, ordered[j].snap); c != 0 {
			return c < 0
		}
		return ordered[i].seq < ordered[j].seq
	})

	result := make([]*domain.Snapshot, 0, len(ordered))
	for i, o := range ordered {
		if i > 0 && compareSnapshots(ordered[i-1].snap, o.snap) == 0 {
			continue
		}
		result = append(result, o.snap)
	}
	return result
}

// SampleTimestamps returns the distinct timestamps of sorted snapshots.
func SampleTimestamps(sorted []*domain.Snapshot) []time.Time {
	var ts []time.Time
	for _, s := range sorted {
		if len(ts) == 0 || !ts[len(ts)-1].Equal(s.TS) {
			ts = append(ts, s.TS)
		}
	}
	return ts
}

// closure is a realized-close event derived from a closed leg.
type closure struct {
	symbol string
	ts     time.Time
	pnl    float64
}

// sortClosures returns realized closures ordered by (exit_ts ASC, symbol ASC, entry_ts ASC).
// Legs that are open or lack exit fields are skipped.
func sortClosures(legs []*domain.Leg) []closure {
	type keyed struct {
		c       closure
		entryTS time.Time
	}

	var ks []keyed
	for _, l := range legs {
		if l == nil {
			continue
		}
		pnl, ok := l.RealizedPnL()
		if !ok {
			continue
		}
		ks = append(ks, keyed{c: closure{symbol: l.Symbol, ts: *l.ExitTS, pnl: pnl}, entryTS: l.EntryTS})
	}

	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if !a.c.ts.Equal(b.c.ts) {
			return a.c.ts.Before(b.c.ts)
		}
		if a.c.symbol != b.c.symbol {
			return a.c.symbol < b.c.symbol
		}
		return a.entryTS.Before(b.entryTS)
	})

	result := make([]closure, len(ks))
	for i, k := range ks {
		result[i] = k.c
	}
	return result
}

// compareSnapshots orders by ts, then symbol:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareSnapshots(a, b *domain.Snapshot) int {
	if !a.TS.Equal(b.TS) {
		if a.TS.Before(b.TS) {
			return -1
		}
		return 1
	}
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return 0
}
