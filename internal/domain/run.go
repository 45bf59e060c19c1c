package domain

import "time"

// Mode is the execution mode of a run.
type Mode string

// Supported run modes.
const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePaper || m == ModeLive
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run status values written by the trading process.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusPaused    RunStatus = "paused"
	RunStatusCompleted RunStatus = "completed"
)

// Run represents one execution of the trading process.
// Corresponds to runs table in PostgreSQL.
type Run struct {
	RunID       string     // PRIMARY KEY
	Exchange    string     // venue name
	Mode        Mode       // paper | live
	Status      RunStatus  // running | paused | completed
	StrategyTag string     // exit-rule variant
	StartTS     time.Time  // UTC
	EndTS       *time.Time // UTC, nil while open

	NumLegs      int     // configured leg count
	MarginPerLeg float64 // USDT margin allocated per leg
	Leverage     float64

	InitialInvestment float64  // >= 0
	CurrentBalance    *float64 // nil when not reported
	CloseReason       *string  // message of the run-completed event
}

// Completed reports whether the run has been closed by the trading process.
func (r *Run) Completed() bool {
	return r.Status == RunStatusCompleted
}

// DurationHours returns the run duration in hours, or nil while the run is open.
func (r *Run) DurationHours() *float64 {
	if r.EndTS == nil {
		return nil
	}
	h := r.EndTS.Sub(r.StartTS).Hours()
	return &h
}
