package domain

import (
	"strings"
	"time"
)

// RunFilter selects runs for reporting. Nil fields are unbounded.
type RunFilter struct {
	Mode        *Mode
	Status      *RunStatus
	StrategyTag *string    // matched case-insensitively
	DateFrom    *time.Time // inclusive, applied to StartTS
	DateTo      *time.Time // inclusive, applied to StartTS
}

// Matches reports whether r satisfies every bound of the filter.
func (f RunFilter) Matches(r *Run) bool {
	if f.Mode != nil && r.Mode != *f.Mode {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.StrategyTag != nil && !strings.EqualFold(r.StrategyTag, *f.StrategyTag) {
		return false
	}
	if f.DateFrom != nil && r.StartTS.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.StartTS.After(*f.DateTo) {
		return false
	}
	return true
}
