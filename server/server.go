// Package server exposes the search API over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/internal/profile"
	"github.com/hrygo/paperseek/search"
	"github.com/hrygo/paperseek/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer    *echo.Echo
	search        *search.Service
	registry      *prometheus.Registry
	searchLatency prometheus.Histogram
}

// NewServer wires the embedding service and the search service onto an
// echo instance. The registry may carry ingestion metrics as well; pass
// nil for a fresh one.
func NewServer(ctx context.Context, profile *profile.Profile, storeInstance *store.Store, registry *prometheus.Registry) (*Server, error) {
	e := echo.New()
	e.Debug = profile.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.InfoContext(ctx, "request",
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
			)
			return nil
		},
	}))

	aiConfig := ai.NewConfigFromProfile(profile)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid AI configuration")
	}
	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create embedding service")
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		Profile:       profile,
		Store:         storeInstance,
		echoServer:    e,
		search:        search.NewService(storeInstance, embeddingService, profile.IndexName, profile.TopK),
		registry:      registry,
		searchLatency: newSearchLatency(registry),
	}
	s.registerRoutes()
	return s, nil
}

func newSearchLatency(registry *prometheus.Registry) prometheus.Histogram {
	return promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "paperseek",
		Subsystem: "search",
		Name:      "request_duration_seconds",
		Help:      "End-to-end search latency, embedding call included",
		Buckets:   prometheus.DefBuckets,
	})
}

func (s *Server) registerRoutes() {
	e := s.echoServer
	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	e.GET("/search/:query", s.handleSearch)
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "failed to start server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown server", slog.String("error", err.Error()))
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.ErrorContext(ctx, "failed to close database", slog.String("error", err.Error()))
	}

	slog.InfoContext(ctx, "paperseek stopped properly")
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}
