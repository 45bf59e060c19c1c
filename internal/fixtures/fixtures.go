// Package fixtures seeds a record store with deterministic demo runs.
package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// SnapshotInterval is the spacing of generated marks.
const SnapshotInterval = 10 * time.Minute

type runTemplate struct {
	mode     domain.Mode
	tag      string
	startAgo time.Duration
	duration time.Duration // zero: still running
	initial  float64
	symbols  []string
}

var templates = []runTemplate{
	{domain.ModePaper, "trail_5", 72 * time.Hour, 6 * time.Hour, 1000, []string{"PEPEUSDT", "WIFUSDT", "BONKUSDT"}},
	{domain.ModeLive, "trail_5", 48 * time.Hour, 4 * time.Hour, 1500, []string{"FLOKIUSDT", "MEMEUSDT"}},
	{domain.ModePaper, "fixed_tp", 24 * time.Hour, 5 * time.Hour, 800, []string{"TURBOUSDT", "PEPEUSDT", "DOGSUSDT"}},
	{domain.ModeLive, "trail_5", 2 * time.Hour, 0, 1200, []string{"WIFUSDT", "BOMEUSDT", "NEIROUSDT"}},
}

const (
	marginPerLeg = 50.0
	leverage     = 3.0
)

// Load writes the demo runs relative to now and returns them in start order.
// The same seed and now always produce the same records, ids included.
func Load(ctx context.Context, s storage.Stores, now time.Time, seed int64) ([]*domain.Run, error) {
	rng := rand.New(rand.NewSource(seed))
	entropy := ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
	now = now.UTC().Truncate(time.Minute)

	runs := make([]*domain.Run, 0, len(templates))
	for _, tpl := range templates {
		start := now.Add(-tpl.startAgo)
		id, err := ulid.New(ulid.Timestamp(start), entropy)
		if err != nil {
			return nil, fmt.Errorf("generate run id: %w", err)
		}

		run, legs, snaps := generate(rng, id.String(), tpl, start, now)
		if err := s.Runs.Insert(ctx, run); err != nil {
			return nil, fmt.Errorf("insert run %s: %w", run.RunID, err)
		}
		for _, l := range legs {
			if err := s.Legs.Insert(ctx, l); err != nil {
				return nil, fmt.Errorf("insert leg %s/%s: %w", run.RunID, l.Symbol, err)
			}
		}
		if err := s.Snapshots.InsertBulk(ctx, snaps); err != nil {
			return nil, fmt.Errorf("insert snapshots %s: %w", run.RunID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// generate builds one run. Each leg is a short whose mark follows a random
// walk from entry; completed runs close every leg, a running run closes only
// its first leg halfway.
func generate(rng *rand.Rand, runID string, tpl runTemplate, start, now time.Time) (*domain.Run, []*domain.Leg, []*domain.Snapshot) {
	run := &domain.Run{
		RunID:             runID,
		Exchange:          "bitget",
		Mode:              tpl.mode,
		Status:            domain.RunStatusRunning,
		StrategyTag:       tpl.tag,
		StartTS:           start,
		NumLegs:           len(tpl.symbols),
		MarginPerLeg:      marginPerLeg,
		Leverage:          leverage,
		InitialInvestment: tpl.initial,
	}

	end := now
	if tpl.duration > 0 {
		end = start.Add(tpl.duration)
		run.EndTS = &end
		run.Status = domain.RunStatusCompleted
		run.CloseReason = ptr("run window elapsed")
	}

	var legs []*domain.Leg
	var snaps []*domain.Snapshot
	var realized, unrealized float64

	for i, sym := range tpl.symbols {
		entryTS := start.Add(time.Duration(i) * 2 * time.Minute)
		entry := 0.5 + rng.Float64()
		qty := marginPerLeg * leverage / entry

		exitTS := end.Add(-time.Duration(i) * 5 * time.Minute)
		closes := run.Completed()
		if !closes && i == 0 {
			exitTS = start.Add(end.Sub(start) / 2)
			closes = true
		}

		price := entry
		var maxFav, maxAdv float64
		for ts := entryTS.Add(SnapshotInterval); !ts.After(exitTS); ts = ts.Add(SnapshotInterval) {
			price *= 1 + rng.NormFloat64()*0.01
			pnl := (entry - price) * qty
			maxFav = max(maxFav, pnl)
			maxAdv = min(maxAdv, pnl)
			snaps = append(snaps, &domain.Snapshot{
				RunID:         runID,
				TS:            ts,
				Symbol:        sym,
				Price:         price,
				UnrealizedPnL: pnl,
				Margin:        ptr(marginPerLeg),
				Leverage:      ptr(leverage),
			})
		}

		leg := &domain.Leg{
			RunID:           runID,
			Symbol:          sym,
			Status:          domain.LegStatusOpen,
			EntryPrice:      entry,
			Qty:             qty,
			EntryTS:         entryTS,
			MaxFavorablePnL: ptr(maxFav),
			MaxAdversePnL:   ptr(maxAdv),
		}
		if closes {
			ts := exitTS
			leg.Status = domain.LegStatusClosed
			leg.ExitPrice = ptr(price)
			leg.ExitTS = &ts
			realized += (entry - price) * qty
		} else {
			unrealized += (entry - price) * qty
		}
		legs = append(legs, leg)
	}

	if !run.Completed() {
		run.CurrentBalance = ptr(tpl.initial + realized + unrealized)
	}
	return run, legs, snaps
}

func ptr[T any](v T) *T {
	return &v
}
