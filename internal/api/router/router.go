// Package router assembles the portal's HTTP routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stillpoint/portal/internal/http/handlers"
	"github.com/stillpoint/portal/internal/http/middleware"
	"github.com/stillpoint/portal/pkg/logging"
)

// Config carries the handlers the router mounts.
type Config struct {
	Logger          *logging.Logger
	AdminJWTSecret  string
	BehaviorHandler *handlers.BehaviorHandler
}

// New builds the chi router with the standard middleware stack.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/orgs/{orgID}", func(r chi.Router) {
		r.Use(middleware.AdminJWT(cfg.AdminJWTSecret))
		cfg.BehaviorHandler.RegisterRoutes(r)
	})

	return r
}
