package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders report rows as CSV string.
// Unavailable values are written as empty fields.
func RenderCSV(rows []ReportRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,mode,strategy_tag,start_ts,end_ts,duration_hours,close_reason,")
	sb.WriteString("initial_investment,final_pnl,final_pnl_pct,max_drawdown,max_drawdown_pct,")
	sb.WriteString("peak_pnl,peak_pnl_pct\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%.6f,%.6f,%s,%s,%s,%s,%s\n",
			csvField(r.RunID),
			r.Mode,
			csvField(r.StrategyTag),
			r.StartTS.UTC().Format(time.RFC3339Nano),
			optTime(r.EndTS),
			optFloat(r.DurationHours, 4),
			csvField(optString(r.CloseReason)),
			r.InitialInvestment,
			r.FinalPnL,
			optFloat(r.FinalPnLPct, 6),
			optFloat(r.MaxDrawdown, 6),
			optFloat(r.MaxDrawdownPct, 6),
			optFloat(r.PeakPnL, 6),
			optFloat(r.PeakPnLPct, 6),
		))
	}

	return sb.String()
}

// csvField quotes a value containing separators, quotes or newlines.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func optFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.*f", prec, *v)
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
