package postgres

import (
	"testing"
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

func TestFilterClause(t *testing.T) {
	where, args := filterClause(domain.RunFilter{})
	if where != "" || len(args) != 0 {
		t.Errorf("empty filter: where=%q args=%v", where, args)
	}

	mode := domain.ModeLive
	status := domain.RunStatusCompleted
	tag := "Trail"
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	where, args = filterClause(domain.RunFilter{
		Mode: &mode, Status: &status, StrategyTag: &tag, DateFrom: &from, DateTo: &to,
	})

	want := " WHERE mode = $1 AND status = $2 AND lower(strategy_tag) = lower($3) AND start_ts >= $4 AND start_ts <= $5"
	if where != want {
		t.Errorf("where = %q\nwant  %q", where, want)
	}
	if len(args) != 5 || args[0] != "live" || args[2] != "Trail" {
		t.Errorf("args = %v", args)
	}
}

func TestFilterClause_Partial(t *testing.T) {
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))
	where, args := filterClause(domain.RunFilter{DateTo: &to})
	if where != " WHERE start_ts <= $1" {
		t.Errorf("where = %q", where)
	}
	if got := args[0].(time.Time); got.Location() != time.UTC {
		t.Errorf("bound not normalised to UTC: %v", got)
	}
}
