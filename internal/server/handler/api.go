package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/llm"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

// APIHandler serves the read-only dashboard endpoints and manual triggers.
type APIHandler struct {
	dispatcher core.JobDispatcher
	store      storage.Store
	rules      *llm.RuleSource
	logger     *slog.Logger
}

// NewAPIHandler creates a handler backed by the given store and dispatcher.
func NewAPIHandler(dispatcher core.JobDispatcher, store storage.Store, rules *llm.RuleSource, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		dispatcher: dispatcher,
		store:      store,
		rules:      rules,
		logger:     logger,
	}
}

// pullRequestView is the JSON shape of a persisted pull request.
type pullRequestView struct {
	ID          int64  `json:"id"`
	Repository  string `json:"repository"`
	PRNumber    int    `json:"pr_number"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Author      string `json:"author"`
	HTMLURL     string `json:"html_url,omitempty"`
	BranchName  string `json:"branch_name,omitempty"`
	BaseBranch  string `json:"base_branch,omitempty"`
	HeadSHA     string `json:"head_sha,omitempty"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
	FileCount   int    `json:"changed_files"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type fileView struct {
	ID           int64  `json:"id"`
	Path         string `json:"file_path"`
	Status       string `json:"status"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	Changes      int    `json:"changes"`
	ReviewStatus string `json:"review_status"`
	SkipReason   string `json:"skip_reason,omitempty"`
}

type suggestionView struct {
	ID          int64  `json:"id"`
	FilePath    string `json:"file_path"`
	LineNumber  *int64 `json:"line_number,omitempty"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
	GitHubURL   string `json:"github_url,omitempty"`
	RuleApplied string `json:"rule_applied,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toPullRequestView(pr *core.PullRequest) pullRequestView {
	return pullRequestView{
		ID:          pr.ID,
		Repository:  pr.Repository,
		PRNumber:    pr.PRNumber,
		Title:       pr.Title,
		Description: pr.Description.String,
		Status:      string(pr.Status),
		Author:      pr.Author,
		HTMLURL:     pr.HTMLURL.String,
		BranchName:  pr.BranchName.String,
		BaseBranch:  pr.BaseBranch.String,
		HeadSHA:     pr.HeadSHA.String,
		Additions:   pr.Additions,
		Deletions:   pr.Deletions,
		FileCount:   pr.FileCount,
		CreatedAt:   pr.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   pr.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toSuggestionView(s core.Suggestion) suggestionView {
	view := suggestionView{
		ID:          s.ID,
		FilePath:    s.FilePath,
		Type:        string(s.Type),
		Severity:    string(s.Severity),
		Title:       s.Title,
		Description: s.Description,
		Suggestion:  s.Remediation.String,
		GitHubURL:   s.GitHubURL.String,
		RuleApplied: s.RuleApplied.String,
		CreatedAt:   s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if s.LineNumber.Valid {
		line := s.LineNumber.Int64
		view.LineNumber = &line
	}
	return view
}

// ListPullRequests returns every persisted pull request, newest first.
func (h *APIHandler) ListPullRequests(w http.ResponseWriter, r *http.Request) {
	prs, err := h.store.ListPullRequests(r.Context())
	if err != nil {
		h.logger.Error("failed to list pull requests", "error", err)
		http.Error(w, "Failed to list pull requests", http.StatusInternalServerError)
		return
	}

	views := make([]pullRequestView, 0, len(prs))
	for i := range prs {
		views = append(views, toPullRequestView(&prs[i]))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetPullRequest returns a single pull request by its internal id.
func (h *APIHandler) GetPullRequest(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.loadPullRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPullRequestView(pr))
}

// ListFiles returns the changed files recorded by the latest review run.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.loadPullRequest(w, r)
	if !ok {
		return
	}

	files, err := h.store.ListFiles(r.Context(), pr.ID)
	if err != nil {
		h.logger.Error("failed to list files", "error", err, "pr_id", pr.ID)
		http.Error(w, "Failed to list files", http.StatusInternalServerError)
		return
	}

	views := make([]fileView, 0, len(files))
	for _, f := range files {
		views = append(views, fileView{
			ID:           f.ID,
			Path:         f.Path,
			Status:       f.Status,
			Additions:    f.Additions,
			Deletions:    f.Deletions,
			Changes:      f.Changes,
			ReviewStatus: string(f.ReviewStatus),
			SkipReason:   f.SkipReason.String,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// ListSuggestions returns the suggestions from the latest review run.
func (h *APIHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.loadPullRequest(w, r)
	if !ok {
		return
	}

	suggestions, err := h.store.ListSuggestions(r.Context(), pr.ID)
	if err != nil {
		h.logger.Error("failed to list suggestions", "error", err, "pr_id", pr.ID)
		http.Error(w, "Failed to list suggestions", http.StatusInternalServerError)
		return
	}

	views := make([]suggestionView, 0, len(suggestions))
	for _, s := range suggestions {
		views = append(views, toSuggestionView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

// TriggerReview queues a fresh review run for an already-recorded pull
// request. With ?wait=1 the response blocks until the run resolves and
// reports its outcome; otherwise the run is queued and 202 returned.
func (h *APIHandler) TriggerReview(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.loadPullRequest(w, r)
	if !ok {
		return
	}

	event, err := eventFromStoredPR(pr)
	if err != nil {
		h.logger.Error("stored pull request cannot be re-reviewed", "error", err, "pr_id", pr.ID)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	handle, err := h.dispatcher.Dispatch(r.Context(), event)
	if err != nil {
		if errors.Is(err, core.ErrReviewInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a review is already in progress for this pull request"})
			return
		}
		h.logger.Error("failed to dispatch manual review", "error", err, "pr", event.Ref())
		http.Error(w, "Failed to start review job", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("wait") != "1" {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "pr": event.Ref()})
		return
	}

	outcome, err := handle.Wait(r.Context())
	if err != nil {
		// The run keeps going in the background; only this caller gave up.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "running", "pr": event.Ref()})
		return
	}

	resp := map[string]any{
		"status":         string(outcome.Result),
		"pr":             event.Ref(),
		"files_reviewed": outcome.FilesReviewed,
		"files_skipped":  outcome.FilesSkipped,
		"suggestions":    outcome.Suggestions,
	}
	if outcome.Err != nil {
		resp["error"] = outcome.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReloadRules re-reads the custom rules file without restarting the service.
func (h *APIHandler) ReloadRules(w http.ResponseWriter, _ *http.Request) {
	if err := h.rules.Reload(); err != nil {
		h.logger.Error("failed to reload custom rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.logger.Info("custom rules reloaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// loadPullRequest resolves the {prID} route parameter to a stored PR, writing
// the error response itself when resolution fails.
func (h *APIHandler) loadPullRequest(w http.ResponseWriter, r *http.Request) (*core.PullRequest, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "prID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid pull request id", http.StatusBadRequest)
		return nil, false
	}

	pr, err := h.store.GetPullRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Pull request not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to load pull request", "error", err, "pr_id", id)
		http.Error(w, "Failed to load pull request", http.StatusInternalServerError)
		return nil, false
	}
	return pr, true
}

// eventFromStoredPR rebuilds a ReviewEvent from a persisted row so a manual
// trigger can run without a fresh webhook payload.
func eventFromStoredPR(pr *core.PullRequest) (*core.ReviewEvent, error) {
	owner, name, found := strings.Cut(pr.Repository, "/")
	if !found || owner == "" || name == "" {
		return nil, errors.New("stored repository name is not in owner/name form")
	}
	if pr.Status != core.PRStatusOpen {
		return nil, errors.New("only open pull requests can be re-reviewed")
	}

	return &core.ReviewEvent{
		RepoOwner:     owner,
		RepoName:      name,
		RepoFullName:  pr.Repository,
		PRNumber:      pr.PRNumber,
		PRTitle:       pr.Title,
		PRBody:        pr.Description.String,
		PRStatus:      pr.Status,
		Author:        pr.Author,
		GitHubID:      pr.GitHubID,
		HTMLURL:       pr.HTMLURL.String,
		HeadRef:       pr.BranchName.String,
		BaseRef:       pr.BaseBranch.String,
		HeadSHA:       pr.HeadSHA.String,
		BaseSHA:       pr.BaseSHA.String,
		Action:        "manual",
		PullRequestID: pr.ID,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
