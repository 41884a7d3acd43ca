// Package httpapi exposes the ledger, dashboard, delivery round, and voice
// capture endpoints over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hbashir/paniwala/internal/app"
	"github.com/hbashir/paniwala/internal/config"
	"github.com/hbashir/paniwala/internal/health"
	"github.com/hbashir/paniwala/internal/observe"
)

// New builds the full HTTP handler tree for the given application.
func New(a *app.App, cfg *config.Config) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(observe.Middleware(a.Metrics()))
	if len(cfg.Server.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	ledgerH := NewLedgerHandler(a.Service())
	dashboardH := NewDashboardHandler(a.Service(), a.Dates(), a.Planner())
	tasksH := NewTasksHandler(a.Planner())
	voiceH := NewVoiceHandler(a, cfg.Server.AllowedOrigins)

	router.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", dashboardH.Get)
		r.Route("/tasks", tasksH.Routes)
		ledgerH.Routes(r)
	})

	router.Get("/ws/voice", voiceH.Serve)

	checks := health.New(health.Database(a.StorePing()))
	router.Get("/healthz", checks.Healthz)
	router.Get("/readyz", checks.Readyz)
	router.Handle("/metrics", promhttp.Handler())

	return router
}
