// Package router provides HTTP routing configuration using Chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/remiblancher/kmscert/internal/api/handler"
	"github.com/remiblancher/kmscert/internal/issue"
)

// Config holds router configuration.
type Config struct {
	Version string
	Issuer  *issue.Issuer
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	healthHandler := handler.NewHealthHandler(cfg.Version)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	certHandler := handler.NewCertHandler(cfg.Issuer)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/certificates", certHandler.Issue)
	})

	return r
}
