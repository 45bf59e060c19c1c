package domain

import "time"

// EquityPoint is one sample of the reconstructed equity curve.
// Derived, never persisted.
type EquityPoint struct {
	TS time.Time

	// UnrealizedBySymbol holds the last known mark per open symbol at TS.
	// Symbols contributing zero are omitted.
	UnrealizedBySymbol map[string]float64

	UnrealizedPnL float64 // sum of UnrealizedBySymbol
	RealizedPnL   float64 // cumulative realized PnL of legs closed at or before TS
	Equity        float64 // initial + realized + unrealized

	// Filled by the drawdown tracker.
	PeakEquity  float64
	DrawdownPct float64 // <= 0
}

// RunSummary holds the per-run headline metrics.
// Nil fields are unavailable (empty curve or zero initial investment).
type RunSummary struct {
	RunID             string
	InitialInvestment float64

	FinalPnL    float64  // realized PnL of all closed legs
	FinalPnLPct *float64 // FinalPnL / initial * 100

	MaxDrawdown        *float64 // worst equity - peak (absolute, <= 0)
	MaxDrawdownPct     *float64 // MaxDrawdown / initial * 100
	MaxDrawdownPeakPct *float64 // worst drawdown relative to the running peak (<= 0)

	PeakPnL    *float64 // peak equity - initial (absolute, >= 0)
	PeakPnLPct *float64 // PeakPnL / initial * 100

	CurrentDrawdownPct float64
	Points             int // length of the equity curve; 0 means no drawdown information
}

// AggregateSummary holds averages of percentage metrics across runs.
// Nil fields are unavailable (no run contributed a value).
type AggregateSummary struct {
	RunCount       int
	AvgFinalPnLPct *float64
	AvgMaxDDPct    *float64
	AvgPeakPnLPct  *float64
}
