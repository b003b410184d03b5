// Package server assembles the bridge's HTTP surface: the provider webhook,
// the flow engine callback, and the order endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"flowbridge/internal/channel"
	"flowbridge/internal/config"
	"flowbridge/internal/domain"
	"flowbridge/internal/metrics"
	"flowbridge/internal/order"
)

// Server is the bridge's HTTP front.
type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	server   *http.Server
	whatsapp *channel.WhatsApp
	sender   domain.Sender
	orders   *order.Service
}

type ServerConfig struct {
	Config      config.ServerConfig
	WebhookPath string
	WhatsApp    *channel.WhatsApp
	Sender      domain.Sender
	Orders      *order.Service
	Logger      *slog.Logger
}

func New(cfg ServerConfig) *Server {
	s := &Server{
		cfg:      cfg.Config,
		logger:   cfg.Logger,
		whatsapp: cfg.WhatsApp,
		sender:   cfg.Sender,
		orders:   cfg.Orders,
	}

	webhookPath := cfg.WebhookPath
	if webhookPath == "" {
		webhookPath = "/webhook"
	}

	mux := http.NewServeMux()
	mux.Handle(webhookPath, s.whatsapp.Handler())
	mux.HandleFunc("POST /callback", s.handleFlowCallback)
	mux.HandleFunc("POST /process-order", s.handleProcessOrder)
	mux.HandleFunc("POST /orders", s.handleOrdersByPhone)
	mux.HandleFunc("POST /order", s.handleOrderByID)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", metrics.Collector.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("server starting", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
}

// Handler exposes the full handler chain (used by tests).
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
