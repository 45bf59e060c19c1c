package feed

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/drawdown"
)

// curveState keeps an incremental drawdown tracker for one subscription.
// Curves are rebuilt from scratch on every poll, so the tracker only advances
// while the history it has already seen is unchanged. That history is kept
// as a running digest of (ts, equity) pairs plus the last point, not as a copy.
type curveState struct {
	initial float64
	tracker *drawdown.Tracker
	count   int                 // points fed to tracker
	digest  uint64              // FNV-1a over the first count points
	last    *domain.EquityPoint // with peak/drawdown filled
	sent    bool
}

func newCurveState(initial float64) *curveState {
	return &curveState{initial: initial, tracker: drawdown.NewTracker(initial)}
}

// update feeds a freshly reconstructed curve and reports whether its last
// point differs from the previous update. The first update always reports a
// change, and so does a rebuild after history was rewritten.
func (s *curveState) update(points []domain.EquityPoint) (last *domain.EquityPoint, changed bool) {
	prevLast := s.last
	h := fnv.New64a()

	rebuilt := false
	if s.count > 0 && (len(points) < s.count || digestPoints(h, points[:s.count]) != s.digest) {
		// Late or out-of-order data rewrote history
		s.tracker = drawdown.NewTracker(s.initial)
		s.count = 0
		s.last = nil
		h.Reset()
		rebuilt = true
	}
	for _, p := range points[s.count:] {
		p.PeakEquity, p.DrawdownPct = s.tracker.Observe(p.Equity)
		writePoint(h, p)
		s.last = &p
	}
	s.count = len(points)
	s.digest = h.Sum64()

	if s.last != nil {
		p := *s.last
		last = &p
	}

	first := !s.sent
	s.sent = true
	return last, first || rebuilt || !samePoint(prevLast, s.last)
}

func digestPoints(h hash.Hash64, points []domain.EquityPoint) uint64 {
	for _, p := range points {
		writePoint(h, p)
	}
	return h.Sum64()
}

func writePoint(h hash.Hash64, p domain.EquityPoint) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(p.TS.UnixNano()))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Equity))
	h.Write(buf[:])
}

func samePoint(a, b *domain.EquityPoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.TS.Equal(b.TS) &&
		a.Equity == b.Equity &&
		a.RealizedPnL == b.RealizedPnL &&
		a.UnrealizedPnL == b.UnrealizedPnL
}
