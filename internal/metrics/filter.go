package metrics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// ErrInvalidFilter is returned for malformed date bounds or unknown
// mode/strategy values.
var ErrInvalidFilter = errors.New("invalid filter")

var strategyTagPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strategytag", func(fl validator.FieldLevel) bool {
		return strategyTagPattern.MatchString(fl.Field().String())
	})
	return v
}

// FilterParams is the raw, untrusted form of a run filter as it arrives from
// a query string or CLI flags. Empty strings are unbounded.
type FilterParams struct {
	Mode        string `validate:"omitempty,oneof=paper live"`
	StrategyTag string `validate:"omitempty,max=64,strategytag"`
	DateFrom    string
	DateTo      string
}

// dateLayouts are tried in order. Date-only bounds resolve to midnight UTC.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// ParseFilter validates raw filter parameters and converts them to a RunFilter.
// All failures wrap ErrInvalidFilter.
func ParseFilter(p FilterParams) (domain.RunFilter, error) {
	p.Mode = strings.TrimSpace(p.Mode)
	p.StrategyTag = strings.TrimSpace(p.StrategyTag)

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.RunFilter{}, fmt.Errorf("%w: %s fails %q", ErrInvalidFilter, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return domain.RunFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	var f domain.RunFilter
	if p.Mode != "" {
		m := domain.Mode(p.Mode)
		f.Mode = &m
	}
	if p.StrategyTag != "" {
		tag := p.StrategyTag
		f.StrategyTag = &tag
	}

	from, err := parseBound("date_from", p.DateFrom)
	if err != nil {
		return domain.RunFilter{}, err
	}
	to, err := parseBound("date_to", p.DateTo)
	if err != nil {
		return domain.RunFilter{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return domain.RunFilter{}, fmt.Errorf("%w: date_from after date_to", ErrInvalidFilter)
	}
	f.DateFrom = from
	f.DateTo = to

	return f, nil
}

func parseBound(name, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q is not RFC 3339 or YYYY-MM-DD", ErrInvalidFilter, name, raw)
}
