package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manoj645/pr-review-agent/internal/config"
	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/llm"
	"github.com/manoj645/pr-review-agent/internal/server/handler"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, dispatcher core.JobDispatcher, store storage.Store, rules *llm.RuleSource, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		webhookHandler := handler.NewWebhookHandler(cfg, dispatcher, store, logger)
		r.Post("/webhooks/github", webhookHandler.Handle)

		apiHandler := handler.NewAPIHandler(dispatcher, store, rules, logger)
		r.Get("/prs", apiHandler.ListPullRequests)
		r.Get("/prs/{prID}", apiHandler.GetPullRequest)
		r.Get("/prs/{prID}/files", apiHandler.ListFiles)
		r.Get("/prs/{prID}/suggestions", apiHandler.ListSuggestions)
		r.Post("/prs/{prID}/review", apiHandler.TriggerReview)
		r.Post("/rules/reload", apiHandler.ReloadRules)
	})

	return r
}
