package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

type readStore struct {
	fakeStoreReads
	prs         map[int64]*core.PullRequest
	suggestions map[int64][]core.Suggestion
}

func (s *readStore) UpsertPullRequest(_ context.Context, event *core.ReviewEvent) (*core.PullRequest, error) {
	return &core.PullRequest{ID: 1, Repository: event.RepoFullName, PRNumber: event.PRNumber}, nil
}

func (s *readStore) GetPullRequest(_ context.Context, id int64) (*core.PullRequest, error) {
	pr, ok := s.prs[id]
	if !ok {
		return nil, fmt.Errorf("%w: pull request %d", storage.ErrNotFound, id)
	}
	return pr, nil
}

func (s *readStore) ListSuggestions(_ context.Context, prID int64) ([]core.Suggestion, error) {
	return s.suggestions[prID], nil
}

func newTestAPIHandler(dispatcher *fakeDispatcher, store *readStore) *APIHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAPIHandler(dispatcher, store, nil, logger)
}

func apiRequest(handler http.HandlerFunc, method, target, prID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("prID", prID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func openPR(id int64) *core.PullRequest {
	return &core.PullRequest{
		ID:         id,
		Repository: "octocat/hello-world",
		PRNumber:   42,
		Title:      "Add feature",
		Status:     core.PRStatusOpen,
		Author:     "dev",
		HeadSHA:    sql.NullString{String: "abc123", Valid: true},
	}
}

func TestAPIHandler_GetPullRequestNotFound(t *testing.T) {
	handler := newTestAPIHandler(&fakeDispatcher{}, &readStore{prs: map[int64]*core.PullRequest{}})

	rec := apiRequest(handler.GetPullRequest, http.MethodGet, "/api/v1/prs/7", "7")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIHandler_GetPullRequestInvalidID(t *testing.T) {
	handler := newTestAPIHandler(&fakeDispatcher{}, &readStore{})

	rec := apiRequest(handler.GetPullRequest, http.MethodGet, "/api/v1/prs/abc", "abc")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIHandler_ListSuggestionsRendersNullables(t *testing.T) {
	store := &readStore{
		prs: map[int64]*core.PullRequest{1: openPR(1)},
		suggestions: map[int64][]core.Suggestion{
			1: {
				{
					ID:          10,
					FilePath:    "main.go",
					LineNumber:  sql.NullInt64{Int64: 12, Valid: true},
					Type:        core.TypeBug,
					Severity:    core.SeverityHigh,
					Title:       "Nil dereference",
					Description: "pointer may be nil",
					GitHubURL:   sql.NullString{String: "https://github.com/octocat/hello-world/blob/abc123/main.go#L12", Valid: true},
				},
				{
					ID:          11,
					FilePath:    "main.go",
					Type:        core.TypeStyle,
					Severity:    core.SeverityLow,
					Title:       "Naming",
					Description: "rename variable",
				},
			},
		},
	}
	handler := newTestAPIHandler(&fakeDispatcher{}, store)

	rec := apiRequest(handler.ListSuggestions, http.MethodGet, "/api/v1/prs/1/suggestions", "1")

	require.Equal(t, http.StatusOK, rec.Code)
	var views []suggestionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	require.NotNil(t, views[0].LineNumber)
	assert.EqualValues(t, 12, *views[0].LineNumber)
	assert.Contains(t, views[0].GitHubURL, "#L12")
	assert.Nil(t, views[1].LineNumber)
}

func TestAPIHandler_TriggerReviewQueues(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	store := &readStore{prs: map[int64]*core.PullRequest{1: openPR(1)}}
	handler := newTestAPIHandler(dispatcher, store)

	rec := apiRequest(handler.TriggerReview, http.MethodPost, "/api/v1/prs/1/review", "1")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, "manual", dispatcher.dispatched[0].Action)
	assert.Equal(t, "octocat/hello-world#42", dispatcher.dispatched[0].Ref())
}

func TestAPIHandler_TriggerReviewWaitReportsOutcome(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	store := &readStore{prs: map[int64]*core.PullRequest{1: openPR(1)}}
	handler := newTestAPIHandler(dispatcher, store)

	rec := apiRequest(handler.TriggerReview, http.MethodPost, "/api/v1/prs/1/review?wait=1", "1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "succeeded", resp["status"])
}

func TestAPIHandler_TriggerReviewConflictsWhenInProgress(t *testing.T) {
	dispatcher := &fakeDispatcher{dispatchErr: core.ErrReviewInProgress}
	store := &readStore{prs: map[int64]*core.PullRequest{1: openPR(1)}}
	handler := newTestAPIHandler(dispatcher, store)

	rec := apiRequest(handler.TriggerReview, http.MethodPost, "/api/v1/prs/1/review", "1")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPIHandler_TriggerReviewRejectsClosedPR(t *testing.T) {
	pr := openPR(1)
	pr.Status = core.PRStatusMerged
	store := &readStore{prs: map[int64]*core.PullRequest{1: pr}}
	handler := newTestAPIHandler(&fakeDispatcher{}, store)

	rec := apiRequest(handler.TriggerReview, http.MethodPost, "/api/v1/prs/1/review", "1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
