package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manoj645/pr-review-agent/internal/core"
)

const tooLargeBody = `{
	"message": "This API returns blobs up to 1 MB in size.",
	"errors": [{"resource": "Blob", "field": "data", "code": "too_large"}],
	"documentation_url": "https://docs.github.com/rest/repos/contents"
}`

func testEvent() *core.ReviewEvent {
	return &core.ReviewEvent{
		RepoOwner:    "owner",
		RepoName:     "repo",
		RepoFullName: "owner/repo",
		PRNumber:     7,
		HeadSHA:      "abc123",
	}
}

// newTestClient points a Client at an httptest server standing in for the
// GitHub API.
func newTestClient(t *testing.T, handler http.Handler, maxFileSize int64) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ghc := github.NewClient(srv.Client())
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	ghc.BaseURL = base

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(ghc, 5, maxFileSize, logger)
}

func listFilesJSON(files ...string) string {
	return "[" + strings.Join(files, ",") + "]"
}

func commitFileJSON(filename, status, patch string) string {
	return fmt.Sprintf(`{"filename": %q, "status": %q, "patch": %q, "additions": 1, "deletions": 0, "changes": 1}`,
		filename, status, patch)
}

func contentJSON(path, content string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	return fmt.Sprintf(`{"type": "file", "encoding": "base64", "name": %q, "path": %q, "size": %d, "content": %q}`,
		path, path, len(content), encoded)
}

func TestFetchChanges_OversizedContentIsSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/7/files", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listFilesJSON(commitFileJSON("big.sql", "modified", "@@ -1 +1 @@\n-a\n+b")))
	})
	mux.HandleFunc("/repos/owner/repo/contents/big.sql", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, tooLargeBody)
	})

	client := newTestClient(t, mux, 1_000_000)
	changes, err := client.FetchChanges(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, changes, 1)

	assert.True(t, changes[0].Skipped, "oversized file must be skipped")
	assert.Equal(t, core.FileSkipped, changes[0].Change.ReviewStatus)
	assert.Contains(t, changes[0].Change.SkipReason.String, "exceeds limit")
	assert.Empty(t, changes[0].Content)
}

func TestFetchChanges_SizeOverConfiguredLimitIsSkipped(t *testing.T) {
	body := strings.Repeat("select 1;\n", 10)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/7/files", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listFilesJSON(commitFileJSON("medium.sql", "modified", "@@ -1 +1 @@\n-a\n+b")))
	})
	mux.HandleFunc("/repos/owner/repo/contents/medium.sql", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contentJSON("medium.sql", body))
	})

	client := newTestClient(t, mux, 10) // limit far below the served size
	changes, err := client.FetchChanges(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, changes, 1)

	assert.True(t, changes[0].Skipped)
	assert.Contains(t, changes[0].Change.SkipReason.String, "exceeds limit 10")
}

func TestFetchChanges_ContentFetchFailureFallsBackToPatch(t *testing.T) {
	patch := "@@ -1 +1 @@\n-a\n+b"
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/7/files", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listFilesJSON(commitFileJSON("gone.go", "modified", patch)))
	})
	mux.HandleFunc("/repos/owner/repo/contents/gone.go", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	client := newTestClient(t, mux, 1_000_000)
	changes, err := client.FetchChanges(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, changes, 1)

	assert.False(t, changes[0].Skipped, "missing content falls back to the raw patch")
	assert.Equal(t, core.FileAnalyzed, changes[0].Change.ReviewStatus)
	assert.Equal(t, patch, changes[0].DiffContext)
}

func TestFetchChanges_PolicySkipsNeverFetchContent(t *testing.T) {
	var contentCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/7/files", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listFilesJSON(
			commitFileJSON("old.go", "removed", "@@ -1 +0,0 @@\n-a"),
			commitFileJSON("logo.png", "modified", ""),
			commitFileJSON("renamed.go", "renamed", ""),
		))
	})
	mux.HandleFunc("/repos/owner/repo/contents/", func(w http.ResponseWriter, _ *http.Request) {
		contentCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, mux, 1_000_000)
	changes, err := client.FetchChanges(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, changes, 3)

	reasons := map[string]string{}
	for _, c := range changes {
		require.True(t, c.Skipped, "%s should be skipped", c.Change.Path)
		reasons[c.Change.Path] = c.SkipReason
	}
	assert.Contains(t, reasons["old.go"], "deleted")
	assert.Contains(t, reasons["logo.png"], "binary")
	assert.Contains(t, reasons["renamed.go"], "no textual diff")
	assert.Zero(t, contentCalls.Load(), "policy skips must not hit the contents API")
}

func TestFetchChanges_PaginatesFileList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, listFilesJSON(commitFileJSON("b.png", "modified", "")))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
		fmt.Fprint(w, listFilesJSON(commitFileJSON("a.png", "modified", "")))
	})

	client := newTestClient(t, mux, 1_000_000)
	changes, err := client.FetchChanges(context.Background(), testEvent())
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "a.png", changes[0].Change.Path)
	assert.Equal(t, "b.png", changes[1].Change.Path)
}

func TestClassifyError_TooLargeIsNotAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/contents/big.bin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, tooLargeBody)
	})

	client := newTestClient(t, mux, 1_000_000)
	_, _, err := client.GetFileContent(context.Background(), "owner", "repo", "big.bin", "abc123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, Retriable(err))
}
