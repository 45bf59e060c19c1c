package domain

import "time"

// Snapshot is a mark-to-market observation of one symbol within a run.
// Corresponds to snapshots table (PostgreSQL) and run_snapshots (ClickHouse).
type Snapshot struct {
	RunID         string
	TS            time.Time // UTC
	Symbol        string
	Price         float64  // mark price
	UnrealizedPnL float64  // USDT
	Margin        *float64 // margin used (nullable)
	Leverage      *float64 // nullable
}
