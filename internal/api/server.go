// Package api exposes the reporting service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/steveuk2021/thescammershort/internal/observability"
	"github.com/steveuk2021/thescammershort/internal/reporting"
)

// FeedHandler serves a live feed connection for one run.
type FeedHandler interface {
	ServeRun(w http.ResponseWriter, r *http.Request, runID string) error
}

// Server is the HTTP surface of the reporting service.
type Server struct {
	echo    *echo.Echo
	handler *Handler
	logger  *zap.Logger
}

// NewServer builds the router. feed may be nil to disable the live feed.
func NewServer(svc *reporting.Service, feed FeedHandler, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))
	e.Use(WithRequestMetrics())
	e.Use(WithErrorHandler(logger))

	h := NewHandler(svc, logger)
	h.RegisterRoutes(e)

	e.GET("/metrics", echo.WrapHandler(observability.Handler()))
	if feed != nil {
		e.GET("/ws/runs/:run_id", func(c echo.Context) error {
			return feed.ServeRun(c.Response(), c.Request(), c.Param("run_id"))
		})
	}

	return &Server{echo: e, handler: h, logger: logger}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
