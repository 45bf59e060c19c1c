package api

import (
	"time"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/reporting"
)

// Timestamps are RFC 3339 UTC with nanoseconds, which sort as text.
func formatTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptTS(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTS(*t)
	return &s
}

type runDTO struct {
	RunID             string   `json:"run_id"`
	Exchange          string   `json:"exchange"`
	Mode              string   `json:"mode"`
	Status            string   `json:"status"`
	StrategyTag       string   `json:"strategy_tag"`
	StartTS           string   `json:"start_ts"`
	EndTS             *string  `json:"end_ts"`
	DurationHours     *float64 `json:"duration_hours"`
	NumLegs           int      `json:"num_legs"`
	MarginPerLeg      float64  `json:"margin_per_leg"`
	Leverage          float64  `json:"leverage"`
	InitialInvestment float64  `json:"initial_investment"`
	CurrentBalance    *float64 `json:"current_balance"`
	CloseReason       *string  `json:"close_reason"`
}

func toRunDTO(r *domain.Run) runDTO {
	return runDTO{
		RunID:             r.RunID,
		Exchange:          r.Exchange,
		Mode:              string(r.Mode),
		Status:            string(r.Status),
		StrategyTag:       r.StrategyTag,
		StartTS:           formatTS(r.StartTS),
		EndTS:             formatOptTS(r.EndTS),
		DurationHours:     r.DurationHours(),
		NumLegs:           r.NumLegs,
		MarginPerLeg:      r.MarginPerLeg,
		Leverage:          r.Leverage,
		InitialInvestment: r.InitialInvestment,
		CurrentBalance:    r.CurrentBalance,
		CloseReason:       r.CloseReason,
	}
}

type legDTO struct {
	Symbol          string   `json:"symbol"`
	Status          string   `json:"status"`
	EntryPrice      float64  `json:"entry_price"`
	ExitPrice       *float64 `json:"exit_price"`
	Qty             float64  `json:"qty"`
	EntryTS         string   `json:"entry_ts"`
	ExitTS          *string  `json:"exit_ts"`
	Margin          *float64 `json:"margin"`
	FinalPnL        *float64 `json:"final_pnl"`
	MaxAdversePnL   *float64 `json:"max_adverse_pnl"`
	MaxFavorablePnL *float64 `json:"max_favorable_pnl"`
}

func toLegDTO(l *domain.Leg) legDTO {
	d := legDTO{
		Symbol:          l.Symbol,
		Status:          string(l.Status),
		EntryPrice:      l.EntryPrice,
		ExitPrice:       l.ExitPrice,
		Qty:             l.Qty,
		EntryTS:         formatTS(l.EntryTS),
		ExitTS:          formatOptTS(l.ExitTS),
		Margin:          l.Margin,
		MaxAdversePnL:   l.MaxAdversePnL,
		MaxFavorablePnL: l.MaxFavorablePnL,
	}
	if pnl, ok := l.RealizedPnL(); ok {
		d.FinalPnL = &pnl
	}
	return d
}

func toLegDTOs(legs []*domain.Leg) []legDTO {
	out := make([]legDTO, len(legs))
	for i, l := range legs {
		out[i] = toLegDTO(l)
	}
	return out
}

type snapshotDTO struct {
	TS            string   `json:"ts"`
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	UnrealizedPnL float64  `json:"unrealized_pnl"`
	Margin        *float64 `json:"margin"`
	Leverage      *float64 `json:"leverage"`
}

func toSnapshotDTOs(snaps []*domain.Snapshot) []snapshotDTO {
	out := make([]snapshotDTO, len(snaps))
	for i, s := range snaps {
		out[i] = snapshotDTO{
			TS:            formatTS(s.TS),
			Symbol:        s.Symbol,
			Price:         s.Price,
			UnrealizedPnL: s.UnrealizedPnL,
			Margin:        s.Margin,
			Leverage:      s.Leverage,
		}
	}
	return out
}

type summaryDTO struct {
	RunID              string   `json:"run_id"`
	InitialInvestment  float64  `json:"initial_investment"`
	FinalPnL           float64  `json:"final_pnl"`
	FinalPnLPct        *float64 `json:"final_pnl_pct"`
	MaxDrawdown        *float64 `json:"max_drawdown"`
	MaxDrawdownPct     *float64 `json:"max_drawdown_pct"`
	MaxDrawdownPeakPct *float64 `json:"max_drawdown_peak_pct"`
	PeakPnL            *float64 `json:"peak_pnl"`
	PeakPnLPct         *float64 `json:"peak_pnl_pct"`
	CurrentDrawdownPct float64  `json:"current_drawdown_pct"`
	Points             int      `json:"points"`
	Empty              bool     `json:"empty"`
}

func toSummaryDTO(s *domain.RunSummary) summaryDTO {
	return summaryDTO{
		RunID:              s.RunID,
		InitialInvestment:  s.InitialInvestment,
		FinalPnL:           s.FinalPnL,
		FinalPnLPct:        s.FinalPnLPct,
		MaxDrawdown:        s.MaxDrawdown,
		MaxDrawdownPct:     s.MaxDrawdownPct,
		MaxDrawdownPeakPct: s.MaxDrawdownPeakPct,
		PeakPnL:            s.PeakPnL,
		PeakPnLPct:         s.PeakPnLPct,
		CurrentDrawdownPct: s.CurrentDrawdownPct,
		Points:             s.Points,
		Empty:              s.Points == 0,
	}
}

type aggregateDTO struct {
	AvgFinalPnLPct *float64 `json:"avg_final_pnl_pct"`
	AvgMaxDDPct    *float64 `json:"avg_max_dd_pct"`
	AvgPeakPnLPct  *float64 `json:"avg_peak_pnl_pct"`
	RunCount       int      `json:"run_count"`
}

// toAggregateDTO returns nil when no run was selected.
func toAggregateDTO(a *domain.AggregateSummary) *aggregateDTO {
	if a == nil || a.RunCount == 0 {
		return nil
	}
	return &aggregateDTO{
		AvgFinalPnLPct: a.AvgFinalPnLPct,
		AvgMaxDDPct:    a.AvgMaxDDPct,
		AvgPeakPnLPct:  a.AvgPeakPnLPct,
		RunCount:       a.RunCount,
	}
}

type reportRowDTO struct {
	RunID             string   `json:"run_id"`
	Mode              string   `json:"mode"`
	StrategyTag       string   `json:"strategy_tag"`
	StartTS           string   `json:"start_ts"`
	EndTS             *string  `json:"end_ts"`
	DurationHours     *float64 `json:"duration_hours"`
	CloseReason       *string  `json:"close_reason"`
	InitialInvestment float64  `json:"initial_investment"`
	FinalPnL          float64  `json:"final_pnl"`
	FinalPnLPct       *float64 `json:"final_pnl_pct"`
	MaxDrawdown       *float64 `json:"max_drawdown"`
	MaxDrawdownPct    *float64 `json:"max_drawdown_pct"`
	PeakPnL           *float64 `json:"peak_pnl"`
	PeakPnLPct        *float64 `json:"peak_pnl_pct"`
}

func toReportRowDTOs(rows []reporting.ReportRow) []reportRowDTO {
	out := make([]reportRowDTO, len(rows))
	for i, r := range rows {
		out[i] = reportRowDTO{
			RunID:             r.RunID,
			Mode:              string(r.Mode),
			StrategyTag:       r.StrategyTag,
			StartTS:           formatTS(r.StartTS),
			EndTS:             formatOptTS(r.EndTS),
			DurationHours:     r.DurationHours,
			CloseReason:       r.CloseReason,
			InitialInvestment: r.InitialInvestment,
			FinalPnL:          r.FinalPnL,
			FinalPnLPct:       r.FinalPnLPct,
			MaxDrawdown:       r.MaxDrawdown,
			MaxDrawdownPct:    r.MaxDrawdownPct,
			PeakPnL:           r.PeakPnL,
			PeakPnLPct:        r.PeakPnLPct,
		}
	}
	return out
}

type timeseriesDTO struct {
	InitialInvestment  float64                  `json:"initial_investment"`
	Symbols            []string                 `json:"symbols"`
	Series             []map[string]interface{} `json:"series"`
	CurrentDrawdownPct float64                  `json:"current_drawdown_pct"`
	MaxDrawdownPct     float64                  `json:"max_drawdown_pct"`
	Empty              bool                     `json:"empty"`
}

// seriesRow flattens an equity point into a chart row keyed by symbol.
// Symbols without a mark at the point's time contribute 0. A symbol that
// collides with a fixed column is left out of the row.
func seriesRow(p domain.EquityPoint, symbols []string) map[string]interface{} {
	row := make(map[string]interface{}, len(symbols)+6)
	row["ts"] = formatTS(p.TS)
	row["realized_pnl"] = p.RealizedPnL
	row["unrealized_pnl"] = p.UnrealizedPnL
	row["aggregate_equity"] = p.Equity
	row["peak_equity"] = p.PeakEquity
	row["drawdown_pct"] = p.DrawdownPct
	for _, sym := range symbols {
		if _, fixed := row[sym]; fixed {
			continue
		}
		row[sym] = p.UnrealizedBySymbol[sym]
	}
	return row
}

func toTimeseriesDTO(ts *reporting.Timeseries) timeseriesDTO {
	series := make([]map[string]interface{}, len(ts.Points))
	for i, p := range ts.Points {
		series[i] = seriesRow(p, ts.Symbols)
	}
	return timeseriesDTO{
		InitialInvestment:  ts.InitialInvestment,
		Symbols:            ts.Symbols,
		Series:             series,
		CurrentDrawdownPct: ts.CurrentDrawdownPct,
		MaxDrawdownPct:     ts.MaxDrawdownPct,
		Empty:              ts.Empty,
	}
}

type positionDTO struct {
	Symbol        string   `json:"symbol"`
	EntryPrice    float64  `json:"entry_price"`
	Qty           float64  `json:"qty"`
	EntryTS       string   `json:"entry_ts"`
	Margin        *float64 `json:"margin"`
	MarkPrice     *float64 `json:"mark_price"`
	UnrealizedPnL *float64 `json:"unrealized_pnl"`
	MarkTS        *string  `json:"mark_ts"`
}

func toPositionDTOs(ps []reporting.Position) []positionDTO {
	out := make([]positionDTO, len(ps))
	for i, p := range ps {
		out[i] = positionDTO{
			Symbol:        p.Symbol,
			EntryPrice:    p.EntryPrice,
			Qty:           p.Qty,
			EntryTS:       formatTS(p.EntryTS),
			Margin:        p.Margin,
			MarkPrice:     p.MarkPrice,
			UnrealizedPnL: p.UnrealizedPnL,
			MarkTS:        formatOptTS(p.MarkTS),
		}
	}
	return out
}

type portfolioDTO struct {
	RunID              string  `json:"run_id"`
	Mode               string  `json:"mode"`
	UnrealizedPnL      float64 `json:"unrealized_pnl"`
	RealizedPnL        float64 `json:"realized_pnl"`
	TotalPnL           float64 `json:"total_pnl"`
	CurrentBalance     float64 `json:"current_balance"`
	UsedMargin         float64 `json:"used_margin"`
	OpenPositions      int     `json:"open_positions"`
	CurrentDrawdownPct float64 `json:"current_drawdown_pct"`
	MaxDrawdownPct     float64 `json:"max_drawdown_pct"`
	Empty              bool    `json:"empty"`
}

func toPortfolioDTO(p *reporting.Portfolio) portfolioDTO {
	return portfolioDTO{
		RunID:              p.RunID,
		Mode:               string(p.Mode),
		UnrealizedPnL:      p.UnrealizedPnL,
		RealizedPnL:        p.RealizedPnL,
		TotalPnL:           p.TotalPnL,
		CurrentBalance:     p.CurrentBalance,
		UsedMargin:         p.UsedMargin,
		OpenPositions:      p.OpenPositions,
		CurrentDrawdownPct: p.CurrentDrawdownPct,
		MaxDrawdownPct:     p.MaxDrawdownPct,
		Empty:              p.Empty,
	}
}
