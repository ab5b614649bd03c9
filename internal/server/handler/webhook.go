// Package handler provides HTTP handlers for the PR review service.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/manoj645/pr-review-agent/internal/config"
	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/metrics"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

// WebhookHandler processes incoming webhooks from GitHub.
type WebhookHandler struct {
	cfg        *config.Config
	dispatcher core.JobDispatcher
	store      storage.Store
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with the given configuration and dispatcher.
func NewWebhookHandler(cfg *config.Config, dispatcher core.JobDispatcher, store storage.Store, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:        cfg,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// Handle processes GitHub webhook requests. The response is written before
// any analysis happens; review work runs in the background.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if github.WebHookType(r) == "" {
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Missing X-GitHub-Event header", http.StatusBadRequest)
		return
	}

	// With no secret configured, signature verification is skipped and the
	// raw body is accepted as-is.
	payload, err := github.ValidatePayload(r, []byte(h.cfg.GitHubWebhookSecret))
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.PingEvent:
		metrics.WebhookRequests.WithLabelValues("ignored").Inc()
		_, _ = fmt.Fprint(w, "pong")
	case *github.PullRequestEvent:
		h.handlePullRequest(r.Context(), w, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		metrics.WebhookRequests.WithLabelValues("ignored").Inc()
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// handlePullRequest records the PR state and, for reviewable actions, queues
// a background run. Duplicate deliveries for a PR with a run already in
// flight coalesce into that run.
func (h *WebhookHandler) handlePullRequest(ctx context.Context, w http.ResponseWriter, event *github.PullRequestEvent) {
	reviewEvent, err := core.EventFromPullRequest(event)
	if err != nil {
		h.logger.Debug("ignoring pull request event", "reason", err.Error(), "repo", event.GetRepo().GetFullName())
		metrics.WebhookRequests.WithLabelValues("ignored").Inc()
		_, _ = fmt.Fprint(w, "Event ignored")
		return
	}

	// The PR row is kept current even for actions that do not trigger a
	// review, so closed and merged states land in the dashboard.
	if _, err := h.store.UpsertPullRequest(ctx, reviewEvent); err != nil {
		h.logger.Error("failed to record pull request", "error", err, "pr", reviewEvent.Ref())
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Failed to record pull request", http.StatusInternalServerError)
		return
	}

	if !reviewEvent.ShouldReview() {
		h.logger.Info("pull request state recorded", "pr", reviewEvent.Ref(), "action", reviewEvent.Action)
		metrics.WebhookRequests.WithLabelValues("accepted").Inc()
		_, _ = fmt.Fprint(w, "Pull request state recorded")
		return
	}

	if _, err := h.dispatcher.Dispatch(ctx, reviewEvent); err != nil {
		if errors.Is(err, core.ErrReviewInProgress) {
			h.logger.Info("review already in progress, coalescing trigger", "pr", reviewEvent.Ref())
			metrics.WebhookRequests.WithLabelValues("coalesced").Inc()
			w.WriteHeader(http.StatusAccepted)
			_, _ = fmt.Fprint(w, "Review already in progress")
			return
		}
		h.logger.Error("failed to dispatch review job", "error", err, "pr", reviewEvent.Ref())
		metrics.WebhookRequests.WithLabelValues("invalid").Inc()
		http.Error(w, "Failed to start review job", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("review job dispatched", "pr", reviewEvent.Ref(), "action", reviewEvent.Action)
	metrics.WebhookRequests.WithLabelValues("accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Review job accepted")
}
