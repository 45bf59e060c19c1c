package domain

import "time"

// LegStatus is the state of a single position.
type LegStatus string

// Leg status values.
const (
	LegStatusOpen   LegStatus = "open"
	LegStatusClosed LegStatus = "closed"
)

// Leg represents one symbol-level short position within a run.
// Corresponds to legs table in PostgreSQL.
type Leg struct {
	RunID      string
	Symbol     string // unique among open legs of a run
	Status     LegStatus
	EntryPrice float64
	ExitPrice  *float64 // set only when closed
	Qty        float64
	EntryTS    time.Time
	ExitTS     *time.Time // set only when closed

	Margin          *float64 // per-leg margin override (nullable)
	MaxFavorablePnL *float64 // best unrealized PnL observed while open
	MaxAdversePnL   *float64 // worst unrealized PnL observed while open
}

// Closed reports whether the leg is closed with both exit fields populated.
func (l *Leg) Closed() bool {
	return l.Status == LegStatusClosed && l.ExitPrice != nil && l.ExitTS != nil
}

// RealizedPnL returns (entry - exit) * qty for a closed leg.
// Short-only convention: profit when price falls.
// Returns false when the leg is not closed.
func (l *Leg) RealizedPnL() (float64, bool) {
	if !l.Closed() {
		return 0, false
	}
	return (l.EntryPrice - *l.ExitPrice) * l.Qty, true
}
