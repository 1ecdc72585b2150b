// Package api serves the gatewire HTTP API: ETF/JSON transcoding and the
// frame capture store, behind an X-API-Key header.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/ssargent/gatewire/pkg/logging"
)

const (
	statsRefreshInterval = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
)

// Routes builds the router with all middleware and endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Transcoding
		r.Post("/decode", s.metrics.InstrumentHandler("POST", "/api/v1/decode", s.handleDecode))
		r.Post("/encode", s.metrics.InstrumentHandler("POST", "/api/v1/encode", s.handleEncode))

		// Capture store
		r.Post("/captures", s.metrics.InstrumentHandler("POST", "/api/v1/captures", s.handleAppendCapture))
		r.Get("/captures", s.metrics.InstrumentHandler("GET", "/api/v1/captures", s.handleListCaptures))
		r.Get("/captures/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/captures/{id}", s.handleGetCapture))
		r.Delete("/captures/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/captures/{id}", s.handleDeleteCapture))

		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))
	})

	return r
}

// startMetricsUpdater refreshes the capture gauges until ctx is done.
func (s *Server) startMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.refreshCaptureStats()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refreshCaptureStats() {
	stats, err := s.store.Stats()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh capture stats")
		return
	}
	s.metrics.UpdateCaptureStats(stats)
}

// StartServer serves the API until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, store CaptureStore, config ServerConfig, metrics *Metrics, logger zerolog.Logger) error {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	server := NewServer(store, config, metrics, logger)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	updaterCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go server.startMetricsUpdater(updaterCtx, statsRefreshInterval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting gatewire API server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down gatewire API server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
