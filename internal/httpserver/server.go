// Package httpserver exposes the webhook endpoint, the billing status API,
// and the gated content API over chi.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reelbrief/server/internal/access"
	"github.com/reelbrief/server/internal/config"
	"github.com/reelbrief/server/internal/content"
	"github.com/reelbrief/server/internal/logger"
	"github.com/reelbrief/server/internal/metrics"
	stripesvc "github.com/reelbrief/server/internal/stripe"
	"github.com/reelbrief/server/internal/subscriptions"
)

var serverStartTime = time.Now()

// Server wires handlers, middleware, and dependencies.
type Server struct {
	handlers
	httpServer *http.Server
}

type handlers struct {
	cfg        *config.Config
	reconciler *stripesvc.Reconciler
	gate       *access.Gate
	repo       subscriptions.Repository
	content    *content.Service
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New builds the HTTP server with its configured router.
func New(cfg *config.Config, reconciler *stripesvc.Reconciler, gate *access.Gate, repo subscriptions.Repository, contentSvc *content.Service, metricsCollector *metrics.Metrics, appLogger zerolog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		handlers: handlers{
			cfg:        cfg,
			reconciler: reconciler,
			gate:       gate,
			repo:       repo,
			content:    contentSvc,
			metrics:    metricsCollector,
			logger:     appLogger,
		},
		httpServer: &http.Server{
			Addr:         cfg.Server.Address,
			ReadTimeout:  cfg.Server.ReadTimeout.Duration,
			WriteTimeout: cfg.Server.WriteTimeout.Duration,
			IdleTimeout:  cfg.Server.IdleTimeout.Duration,
			Handler:      router,
		},
	}

	s.configureRouter(router)
	return s
}

func (s *Server) configureRouter(router chi.Router) {
	cfg := s.cfg

	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	router.Use(securityHeadersMiddleware)

	// Logging middleware goes before RequestID so the request ID lands in
	// the request-scoped logger.
	router.Use(logger.Middleware(s.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	// Lightweight endpoints with a short timeout.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Second))
		r.Get("/healthz", s.health)
		r.Handle("/metrics", promhttp.Handler())
	})

	// Webhook endpoint: stable URL, never rate limited. Stripe paces its own
	// deliveries and a rejected delivery just comes back later.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/webhook/stripe", s.handleStripeWebhook)
	})

	// Tenant-facing API.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		if cfg.RateLimit.Enabled {
			r.Use(httprate.LimitByIP(cfg.RateLimit.Limit, cfg.RateLimit.Window.Duration))
		}

		r.Get("/api/businesses/{businessID}/access", s.getAccessStatus)
		r.Get("/api/businesses/{businessID}/subscription", s.getSubscription)

		// Content routes sit behind the access gate.
		r.Group(func(pr chi.Router) {
			pr.Use(s.gate.Middleware(businessIDFromPath))
			pr.Get("/api/businesses/{businessID}/content", s.listContent)
		})
	})
}

// businessIDFromPath resolves the tenant from the businessID URL parameter.
func businessIDFromPath(r *http.Request) (string, error) {
	return chi.URLParam(r, "businessID"), nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
