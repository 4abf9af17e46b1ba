package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/workspace-assistant/internal/config"
	"github.com/capitalize-ai/workspace-assistant/internal/handler"
	"github.com/capitalize-ai/workspace-assistant/internal/middleware"
	"github.com/capitalize-ai/workspace-assistant/pkg/logger"
)

type routerDeps struct {
	cfg         *config.Config
	health      *handler.HealthHandler
	chat        *handler.ChatHandler
	connections *handler.ConnectionsHandler
	actions     *handler.ActionsHandler // nil when the audit log is disabled
	logger      *logger.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", d.health.Health)
	r.Get("/ready", d.health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Google redirects here; the signed state carries the identity.
	r.Get("/oauth/callback", d.connections.Callback)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.cfg.JWTSecret))

		r.With(middleware.UserRateLimit(d.cfg.RateLimitRequests, d.cfg.RateLimitWindow)).
			Post("/chat", d.chat.Chat)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", d.connections.List)
			r.Post("/{service}", d.connections.Connect)
			r.Delete("/{service}", d.connections.Disconnect)
		})
		r.Delete("/account", d.connections.DeleteAccount)

		if d.actions != nil {
			r.Get("/actions", d.actions.List)
		}
	})

	return r
}
