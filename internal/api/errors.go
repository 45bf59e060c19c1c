package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/metrics"
	"github.com/steveuk2021/thescammershort/internal/observability"
	"github.com/steveuk2021/thescammershort/internal/storage"
)

// WithErrorHandler maps handler errors to JSON responses.
// Unknown run ids are 404, invalid filters 400, anything else 500 and logged.
func WithErrorHandler(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var he *echo.HTTPError
			if errors.As(err, &he) {
				return c.JSON(he.Code, errorBody(he.Code, he.Message))
			}

			switch {
			case errors.Is(err, storage.ErrNotFound):
				return c.JSON(http.StatusNotFound, errorBody(http.StatusNotFound, err.Error()))
			case errors.Is(err, metrics.ErrInvalidFilter), errors.Is(err, storage.ErrInvalidInput):
				return c.JSON(http.StatusBadRequest, errorBody(http.StatusBadRequest, err.Error()))
			}

			logger.Error("api",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err))
			return c.JSON(http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "internal error"))
		}
	}
}

func errorBody(code int, message interface{}) map[string]interface{} {
	return map[string]interface{}{
		"code":    code,
		"message": message,
	}
}

// WithRequestMetrics records request count and latency per route template.
func WithRequestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				// Error escaped the error handler; echo will render it
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			observability.RecordHTTPRequest(c.Request().Method, route, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
