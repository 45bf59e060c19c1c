package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Runs Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Filter: %s\n\n", describeFilter(r.Filter)))

	// Aggregate
	sb.WriteString("## Aggregate\n\n")
	if r.Aggregate != nil && r.Aggregate.RunCount > 0 {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Runs | %d |\n", r.Aggregate.RunCount))
		sb.WriteString(fmt.Sprintf("| Avg Final PnL %% | %s |\n", mdFloat(r.Aggregate.AvgFinalPnLPct)))
		sb.WriteString(fmt.Sprintf("| Avg Max Drawdown %% | %s |\n", mdFloat(r.Aggregate.AvgMaxDDPct)))
		sb.WriteString(fmt.Sprintf("| Avg Peak PnL %% | %s |\n", mdFloat(r.Aggregate.AvgPeakPnLPct)))
	} else {
		sb.WriteString("No completed runs match the filter.\n")
	}
	sb.WriteString("\n")

	// Runs
	sb.WriteString("## Runs\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Run | Mode | Strategy | Start | Hours | Initial | Final PnL | Final % | Max DD | Max DD % | Peak PnL | Peak % | Close Reason |\n")
		sb.WriteString("|-----|------|----------|-------|-------|---------|-----------|---------|--------|----------|----------|--------|--------------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %.2f | %.2f | %s | %s | %s | %s | %s | %s |\n",
				row.RunID, row.Mode, row.StrategyTag,
				row.StartTS.UTC().Format(time.RFC3339),
				mdFloat(row.DurationHours),
				row.InitialInvestment, row.FinalPnL, mdFloat(row.FinalPnLPct),
				mdFloat(row.MaxDrawdown), mdFloat(row.MaxDrawdownPct),
				mdFloat(row.PeakPnL), mdFloat(row.PeakPnLPct),
				mdText(optString(row.CloseReason))))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func describeFilter(f domain.RunFilter) string {
	var parts []string
	if f.Mode != nil {
		parts = append(parts, "mode="+string(*f.Mode))
	}
	if f.StrategyTag != nil {
		parts = append(parts, "strategy="+*f.StrategyTag)
	}
	if f.DateFrom != nil {
		parts = append(parts, "from="+f.DateFrom.UTC().Format(time.RFC3339))
	}
	if f.DateTo != nil {
		parts = append(parts, "to="+f.DateTo.UTC().Format(time.RFC3339))
	}
	if len(parts) == 0 {
		return "all completed runs"
	}
	return strings.Join(parts, ", ")
}

func mdFloat(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// mdText keeps free text from breaking the table row.
func mdText(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
