// Package http provides the HTTP API for reportd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/reportd/internal/authn"
	"github.com/fyrsmithlabs/reportd/internal/codec"
	"github.com/fyrsmithlabs/reportd/internal/deck"
	"github.com/fyrsmithlabs/reportd/internal/project"
	"github.com/fyrsmithlabs/reportd/internal/store"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// ExposeResetLinks returns password reset links in the API response
	// instead of relying on mail delivery. For development only.
	ExposeResetLinks bool
}

// Server provides the reportd HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	config   *Config
	store    *store.Store
	auth     *authn.Service
	issuer   *authn.TokenIssuer
	google   *authn.GoogleFlow
	limiter  *authn.LoginLimiter
	codecs   *codec.Registry
	renderer *deck.Renderer
	projects *project.Registry
}

// NewServer wires the API. google may be nil when the OAuth client is
// not configured.
func NewServer(cfg *Config, st *store.Store, auth *authn.Service, issuer *authn.TokenIssuer, google *authn.GoogleFlow, projects *project.Registry, logger *zap.Logger) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if projects == nil {
		return nil, fmt.Errorf("project registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metricsMiddleware())
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

	registry := codec.NewRegistry()
	s := &Server{
		echo:     e,
		logger:   logger,
		config:   cfg,
		store:    st,
		auth:     auth,
		issuer:   issuer,
		google:   google,
		limiter:  authn.NewLoginLimiter(rate.Every(6*time.Second), 10),
		codecs:   registry,
		renderer: deck.NewRenderer(registry),
		projects: projects,
	}

	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)

	auth := api.Group("/auth")
	throttled := authn.RateLimit(s.limiter)
	auth.POST("/signup", s.handleSignup, throttled)
	auth.POST("/login", s.handleLogin, throttled)
	auth.POST("/forgot-password", s.handleForgotPassword, throttled)
	auth.POST("/reset-password", s.handleResetPassword, throttled)
	auth.GET("/google", s.handleGoogleStart)
	auth.GET("/google/callback", s.handleGoogleCallback)
	auth.GET("/google/status", s.handleGoogleStatus)

	protected := api.Group("", authn.Middleware(s.issuer))
	protected.GET("/projects", s.handleListProjects)
	protected.GET("/reports", s.handleListReports)
	protected.POST("/reports", s.handleSaveReport)
	protected.GET("/reports/:id", s.handleGetReport)
	protected.DELETE("/reports/:id", s.handleDeleteReport)
	protected.GET("/reports/:id/export", s.handleExportReport)
	protected.POST("/reports/import", s.handleImportReport)
}

// HealthResponse is the response body for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	Store  bool   `json:"store"`
}

// handleHealth reports liveness and store readiness. The process is
// healthy while the store is still connecting, so this always answers
// 200 and lets callers inspect the store flag.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Store: s.store.Connected()})
}

// resolveContext builds the name-resolution context for the current
// user from the account list and project registry.
func (s *Server) resolveContext(ctx context.Context, currentUserID string) (*codec.ResolveContext, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]codec.UserRef, len(users))
	for i, u := range users {
		refs[i] = codec.UserRef{ID: u.ID, Name: u.Name}
	}
	return &codec.ResolveContext{
		CurrentUserID: currentUserID,
		Users:         refs,
		Projects:      s.projects,
	}, nil
}

// storeError maps persistence sentinels onto HTTP status codes.
func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotReady):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage is not ready yet")
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "report belongs to another user")
	case errors.Is(err, store.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, "an account with this email already exists")
	default:
		return err
	}
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
