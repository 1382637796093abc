// Package server provides the HTTP API for retrievald.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/retrievald/internal/gateway"
	"github.com/fyrsmithlabs/retrievald/internal/retrieval"
)

// Authenticator maps a bearer token to a caller id.
type Authenticator interface {
	CallerID(token string) (string, bool)
}

// StaticTokens is a config-backed Authenticator.
type StaticTokens map[string]string

// CallerID implements Authenticator.
func (s StaticTokens) CallerID(token string) (string, bool) {
	id, ok := s[token]
	return id, ok
}

// Server provides HTTP endpoints for retrievald.
type Server struct {
	echo    *echo.Echo
	service *gateway.Service
	auth    Authenticator
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(service *gateway.Service, auth Authenticator, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if auth == nil {
		return nil, fmt.Errorf("authenticator cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9380,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		auth:    auth,
		logger:  logger,
		config:  cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and metrics
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1", s.requireCaller)
	v1.POST("/retrieval", s.handleRetrieval)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorBody is the JSON error envelope for all non-2xx API responses.
type ErrorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(kind, msg string) ErrorBody {
	var b ErrorBody
	b.Error.Kind = kind
	b.Error.Message = msg
	return b
}

const callerKey = "caller_id"

// requireCaller authenticates the bearer token and stashes the caller id in
// the request context.
func (s *Server) requireCaller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "missing bearer token"))
		}

		callerID, ok := s.auth.CallerID(token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "unknown token"))
		}

		c.Set(callerKey, callerID)
		return next(c)
	}
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRetrieval runs the retrieval pipeline for POST /api/v1/retrieval.
func (s *Server) handleRetrieval(c echo.Context) error {
	var req gateway.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid retrieval request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, errorBody("invalid_request", "invalid request body"))
	}

	callerID, _ := c.Get(callerKey).(string)
	rs, err := s.service.Retrieve(c.Request().Context(), callerID, req)
	if err != nil {
		return s.writeError(c, err)
	}

	if rs.Chunks == nil {
		rs.Chunks = []*retrieval.Chunk{}
	}
	return c.JSON(http.StatusOK, rs)
}

// writeError maps a pipeline error to an HTTP status and envelope. Internal
// causes are logged but never serialized into the response.
func (s *Server) writeError(c echo.Context, err error) error {
	var ge *gateway.Error
	if !errors.As(err, &ge) {
		s.logger.Error("unclassified retrieval error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("internal", "internal error"))
	}

	status := http.StatusInternalServerError
	switch ge.Kind {
	case gateway.KindInvalidRequest:
		status = http.StatusBadRequest
	case gateway.KindUnauthorized:
		status = http.StatusForbidden
	case gateway.KindNotFound:
		status = http.StatusNotFound
	case gateway.KindModelNotBound:
		status = http.StatusUnprocessableEntity
	case gateway.KindBackend:
		status = http.StatusBadGateway
	}

	if status >= 500 {
		s.logger.Error("retrieval failed", zap.String("kind", ge.Kind.String()), zap.Error(err))
	} else {
		s.logger.Warn("retrieval rejected", zap.String("kind", ge.Kind.String()), zap.Error(err))
	}

	return c.JSON(status, errorBody(ge.Kind.String(), ge.Msg))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
