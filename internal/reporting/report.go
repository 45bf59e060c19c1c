package reporting

import (
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// Timeseries is a run's equity curve with the symbols that appear in it.
type Timeseries struct {
	RunID             string
	InitialInvestment float64
	Symbols           []string // sorted
	Points            []domain.EquityPoint

	CurrentDrawdownPct float64
	MaxDrawdownPct     float64
	Empty              bool // no snapshots; drawdown values carry no information
}

// LegDetail is a leg with its realized outcome.
type LegDetail struct {
	Leg      *domain.Leg
	FinalPnL *float64 // nil unless closed
}

// RunDetail bundles a run record, its legs and summary.
type RunDetail struct {
	Run     *domain.Run
	Legs    []LegDetail
	Summary *domain.RunSummary
}

// ReportRow represents one row in the runs report table.
type ReportRow struct {
	RunID         string
	Mode          domain.Mode
	StrategyTag   string
	StartTS       time.Time
	EndTS         *time.Time
	DurationHours *float64
	CloseReason   *string

	InitialInvestment float64
	FinalPnL          float64
	FinalPnLPct       *float64
	MaxDrawdown       *float64
	MaxDrawdownPct    *float64
	PeakPnL           *float64
	PeakPnLPct        *float64
}

// Position is an open leg with its latest mark.
type Position struct {
	Symbol     string
	EntryPrice float64
	Qty        float64
	EntryTS    time.Time
	Margin     *float64

	MarkPrice     *float64
	UnrealizedPnL *float64
	MarkTS        *time.Time // nil when the symbol has no snapshot yet
}

// Portfolio is the current state of one run.
type Portfolio struct {
	RunID string
	Mode  domain.Mode

	UnrealizedPnL  float64
	RealizedPnL    float64
	TotalPnL       float64
	CurrentBalance float64
	UsedMargin     float64
	OpenPositions  int

	CurrentDrawdownPct float64
	MaxDrawdownPct     float64
	Empty              bool
}

// Report represents the runs report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Filter      domain.RunFilter

	// Rows sorted by start_ts DESC
	Rows []ReportRow

	Aggregate *domain.AggregateSummary
}
