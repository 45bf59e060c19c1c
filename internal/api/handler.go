package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/domain"
	"github.com/steveuk2021/thescammershort/internal/metrics"
	"github.com/steveuk2021/thescammershort/internal/reporting"
)

const (
	defaultSnapshotLimit = 50
	maxSnapshotLimit     = 1000
)

// Handler serves the reporting endpoints.
type Handler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewHandler creates a reporting handler.
func NewHandler(svc *reporting.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts all reporting routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	e.GET("/runs/latest", h.LatestRun)
	e.GET("/positions/open", h.OpenPositions)
	e.GET("/legs", h.Legs)
	e.GET("/snapshots/latest", h.LatestSnapshots)
	e.GET("/portfolio", h.Portfolio)

	reports := e.Group("/reports")
	reports.GET("/runs", h.ReportRuns)
	reports.GET("/run", h.RunDetail)
	reports.GET("/aggregate", h.Aggregate)
	reports.GET("/run/timeseries", h.RunTimeseries)
	reports.GET("/run/summary", h.RunSummary)
}

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func requireRunID(c echo.Context) (string, error) {
	runID := c.QueryParam("run_id")
	if runID == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "run_id is required")
	}
	return runID, nil
}

func parseFilter(c echo.Context) (domain.RunFilter, error) {
	strategy := c.QueryParam("strategy")
	if strategy == "" {
		strategy = c.QueryParam("strategy_tag")
	}
	return metrics.ParseFilter(metrics.FilterParams{
		Mode:        c.QueryParam("mode"),
		StrategyTag: strategy,
		DateFrom:    c.QueryParam("date_from"),
		DateTo:      c.QueryParam("date_to"),
	})
}

// LatestRun GET /runs/latest?mode=
func (h *Handler) LatestRun(c echo.Context) error {
	f, err := metrics.ParseFilter(metrics.FilterParams{Mode: c.QueryParam("mode")})
	if err != nil {
		return err
	}
	run, err := h.svc.GetLatestRun(c.Request().Context(), f.Mode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"run": toRunDTO(run)})
}

// OpenPositions GET /positions/open?run_id=
func (h *Handler) OpenPositions(c echo.Context) error {
	runID, positions, err := h.svc.OpenPositions(c.Request().Context(), c.QueryParam("run_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run_id":    runID,
		"positions": toPositionDTOs(positions),
	})
}

// Legs GET /legs?run_id=
func (h *Handler) Legs(c echo.Context) error {
	runID, err := requireRunID(c)
	if err != nil {
		return err
	}
	legs, err := h.svc.Legs(c.Request().Context(), runID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"legs": toLegDTOs(legs)})
}

// LatestSnapshots GET /snapshots/latest?run_id=&limit=
func (h *Handler) LatestSnapshots(c echo.Context) error {
	runID, err := requireRunID(c)
	if err != nil {
		return err
	}

	limit := defaultSnapshotLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSnapshotLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxSnapshotLimit))
		}
		limit = n
	}

	snaps, err := h.svc.LatestSnapshots(c.Request().Context(), runID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"snapshots": toSnapshotDTOs(snaps)})
}

// Portfolio GET /portfolio?run_id=
func (h *Handler) Portfolio(c echo.Context) error {
	p, err := h.svc.GetPortfolio(c.Request().Context(), c.QueryParam("run_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortfolioDTO(p))
}

// ReportRuns GET /reports/runs?mode=&strategy=&date_from=&date_to=
func (h *Handler) ReportRuns(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	rows, err := h.svc.ListReportRows(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": toReportRowDTOs(rows)})
}

// RunDetail GET /reports/run?run_id=
func (h *Handler) RunDetail(c echo.Context) error {
	runID, err := requireRunID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetRunDetail(c.Request().Context(), runID)
	if err != nil {
		return err
	}

	legs := make([]legDTO, len(d.Legs))
	for i, l := range d.Legs {
		legs[i] = toLegDTO(l.Leg)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"run":     toRunDTO(d.Run),
		"legs":    legs,
		"summary": toSummaryDTO(d.Summary),
	})
}

// Aggregate GET /reports/aggregate?mode=&strategy=&date_from=&date_to=
func (h *Handler) Aggregate(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	agg, err := h.svc.GetAggregate(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"aggregate": toAggregateDTO(agg)})
}

// RunTimeseries GET /reports/run/timeseries?run_id=
func (h *Handler) RunTimeseries(c echo.Context) error {
	runID, err := requireRunID(c)
	if err != nil {
		return err
	}
	ts, err := h.svc.GetRunTimeseries(c.Request().Context(), runID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTimeseriesDTO(ts))
}

// RunSummary GET /reports/run/summary?run_id=
func (h *Handler) RunSummary(c echo.Context) error {
	runID, err := requireRunID(c)
	if err != nil {
		return err
	}
	s, err := h.svc.GetRunSummary(c.Request().Context(), runID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryDTO(s))
}
