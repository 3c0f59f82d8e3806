// Package server exposes the AIOps HTTP surface: the chat endpoint, the
// direct remediation endpoint and the operational probes.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hexabase/hexabase-ai/internal/auth"
	"github.com/hexabase/hexabase-ai/internal/cluster"
	"github.com/hexabase/hexabase-ai/internal/metrics"
	"github.com/hexabase/hexabase-ai/internal/orchestrator"
	"github.com/hexabase/hexabase-ai/internal/session"
	"github.com/hexabase/hexabase-ai/internal/version"
)

// Server wires the echo router to the orchestrator and its supporting
// stores.
type Server struct {
	echo     *echo.Echo
	orch     *orchestrator.Orchestrator
	cluster  *cluster.Client
	sessions *session.Store
	keys     *auth.KeySource
	logger   *slog.Logger
}

func New(orch *orchestrator.Orchestrator, clusterClient *cluster.Client, sessions *session.Store, validator *auth.Validator, keys *auth.KeySource, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		orch:     orch,
		cluster:  clusterClient,
		sessions: sessions,
		keys:     keys,
		logger:   logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestMetrics)
	e.Use(auth.Middleware(validator, logger))

	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/v1/chat", s.handleChat)
	e.POST("/v1/workspaces/:workspace_id/remediate", s.handleRemediate)

	return s
}

// Handler returns the root http.Handler for use by http.Server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		metrics.RecordRequest(c.Request().Method, c.Path(), status, time.Since(start))
		s.logger.Info("request",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start))
		return err
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": version.Version,
	})
}

func (s *Server) handleReady(c echo.Context) error {
	if !s.keys.Ready() {
		if _, err := s.keys.Key(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "signing keys unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
