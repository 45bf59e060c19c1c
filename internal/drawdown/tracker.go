// Package drawdown tracks running peak equity and peak-relative drawdown
// over an equity curve.
package drawdown

import "github.com/steveuk2021/thescammershort/internal/domain"

// Tracker is an incremental peak/drawdown accumulator.
// Each Observe call is O(1); state is a few scalars regardless of curve length.
// Not safe for concurrent use.
type Tracker struct {
	peak    float64
	current float64 // drawdown at the last observation, percent, <= 0
	max     float64 // most negative drawdown seen, percent, <= 0
	points  int
}

// NewTracker creates a tracker whose peak starts at the initial investment.
func NewTracker(initialInvestment float64) *Tracker {
	return &Tracker{peak: initialInvestment}
}

// Observe feeds the next equity value and returns the updated peak and
// drawdown percent. Drawdown is 0 whenever peak is not positive.
func (t *Tracker) Observe(equity float64) (peak, drawdownPct float64) {
	if equity > t.peak {
		t.peak = equity
	}

	dd := 0.0
	if t.peak > 0 {
		dd = (equity - t.peak) / t.peak * 100
	}
	// Rounding can produce a tiny positive value when equity == peak
	if dd > 0 {
		dd = 0
	}

	t.current = dd
	if dd < t.max {
		t.max = dd
	}
	t.points++
	return t.peak, dd
}

// Peak returns the running peak equity.
func (t *Tracker) Peak() float64 { return t.peak }

// Current returns the drawdown percent at the last observation.
func (t *Tracker) Current() float64 { return t.current }

// Max returns the most negative drawdown percent observed so far.
func (t *Tracker) Max() float64 { return t.max }

// Points returns the number of observations.
func (t *Tracker) Points() int { return t.points }

// Empty reports whether nothing has been observed.
// Callers use it to tell "no data" apart from "no drawdown".
func (t *Tracker) Empty() bool { return t.points == 0 }

// Result is the outcome of running a tracker over a whole curve.
type Result struct {
	Points             []domain.EquityPoint
	PeakEquity         float64
	MaxDrawdownPct     float64
	CurrentDrawdownPct float64
	Empty              bool
}

// Apply fills PeakEquity and DrawdownPct on each point in order.
// The returned slice is a copy; the input is not modified.
func Apply(initialInvestment float64, points []domain.EquityPoint) Result {
	t := NewTracker(initialInvestment)
	out := make([]domain.EquityPoint, len(points))
	for i, p := range points {
		p.PeakEquity, p.DrawdownPct = t.Observe(p.Equity)
		out[i] = p
	}
	return Result{
		Points:             out,
		PeakEquity:         t.Peak(),
		MaxDrawdownPct:     t.Max(),
		CurrentDrawdownPct: t.Current(),
		Empty:              t.Empty(),
	}
}
