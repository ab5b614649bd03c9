// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/manoj645/pr-review-agent/internal/core"
)

// Client defines the read-only operations the review pipeline needs from the
// GitHub API: pull-request metadata, the changed-file list with patches, and
// raw file content for context synthesis.
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	FetchChanges(ctx context.Context, event *core.ReviewEvent) ([]core.FileWithDiff, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, int64, error)
}

type gitHubClient struct {
	client       *github.Client
	contextLines int
	maxFileSize  int64
	logger       *slog.Logger
}

// NewClient wraps the official go-github client to provide a focused,
// testable interface for application-specific GitHub operations.
func NewClient(client *github.Client, contextLines int, maxFileSize int64, logger *slog.Logger) Client {
	return &gitHubClient{
		client:       client,
		contextLines: contextLines,
		maxFileSize:  maxFileSize,
		logger:       logger,
	}
}

// NewTokenClient creates a Client authenticated with a personal access token.
func NewTokenClient(ctx context.Context, token string, contextLines int, maxFileSize int64, logger *slog.Logger) Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return NewClient(github.NewClient(tc), contextLines, maxFileSize, logger)
}

// GetPullRequest retrieves a single pull request by its number.
func (g *gitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, resp, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		g.logger.Error("failed to get pull request", "owner", owner, "repo", repo, "pr", number, "error", err)
		return nil, classifyError(err, resp)
	}
	return pr, nil
}

// FetchChanges retrieves the full changed-file set for a pull request. It
// handles pagination automatically (GitHub returns at most 100 files per
// page) and, for each analyzable file, fetches the head-revision content and
// synthesizes diff context around the changed lines. Files over the size
// limit and deleted or binary files are returned flagged as skipped rather
// than silently dropped.
func (g *gitHubClient) FetchChanges(ctx context.Context, event *core.ReviewEvent) ([]core.FileWithDiff, error) {
	var raw []*github.CommitFile
	opts := &github.ListOptions{PerPage: 100}

	for {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber, opts)
		if err != nil {
			g.logger.Error("failed to list files for pull request",
				"owner", event.RepoOwner, "repo", event.RepoName, "pr", event.PRNumber, "error", err)
			return nil, classifyError(err, resp)
		}
		raw = append(raw, files...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	changes := make([]core.FileWithDiff, 0, len(raw))
	for _, f := range raw {
		changes = append(changes, g.buildFileWithDiff(ctx, event, f))
	}
	return changes, nil
}

// GetFileContent retrieves decoded file content at a specific ref along with
// its size in bytes.
func (g *gitHubClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, int64, error) {
	fc, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		g.logger.Error("failed to get file content", "owner", owner, "repo", repo, "path", path, "ref", ref, "error", err)
		return "", 0, classifyError(err, resp)
	}
	if fc == nil {
		return "", 0, fmt.Errorf("%w: %s at %s is not a file", ErrNotFound, path, ref)
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}
	return content, int64(fc.GetSize()), nil
}

// buildFileWithDiff converts one GitHub commit file into the pipeline's
// representation, applying the skip policy before any content is fetched.
func (g *gitHubClient) buildFileWithDiff(ctx context.Context, event *core.ReviewEvent, f *github.CommitFile) core.FileWithDiff {
	change := core.FileChange{
		Filename:     f.GetFilename(),
		Path:         f.GetFilename(),
		Status:       f.GetStatus(),
		Additions:    f.GetAdditions(),
		Deletions:    f.GetDeletions(),
		Changes:      f.GetChanges(),
		ReviewStatus: core.FileAnalyzed,
	}
	out := core.FileWithDiff{Change: change, Patch: f.GetPatch()}

	if f.GetStatus() == "removed" || f.GetStatus() == "deleted" {
		return skipFile(out, "file was deleted in this revision")
	}
	if IsBinaryPath(f.GetFilename()) {
		return skipFile(out, "binary file")
	}
	if f.GetPatch() == "" {
		return skipFile(out, "no textual diff available")
	}

	content, size, err := g.GetFileContent(ctx, event.RepoOwner, event.RepoName, f.GetFilename(), event.HeadSHA)
	if err != nil {
		// The contents API refuses blobs over 1 MB outright, so for files
		// at or beyond that size the fetch itself is the size check.
		if errors.Is(err, ErrTooLarge) {
			return skipFile(out, fmt.Sprintf("file size exceeds limit %d", g.maxFileSize))
		}
		g.logger.Warn("could not fetch file content, analyzing patch only",
			"path", f.GetFilename(), "error", err)
		out.DiffContext = out.Patch
		return out
	}
	if size > g.maxFileSize {
		// Truncating would produce misleading analysis, so oversized files
		// are skipped outright with the reason recorded.
		return skipFile(out, fmt.Sprintf("file size %d exceeds limit %d", size, g.maxFileSize))
	}

	out.Content = content
	out.DiffContext = ExpandDiffContext(out.Patch, content, g.contextLines)
	return out
}

func skipFile(f core.FileWithDiff, reason string) core.FileWithDiff {
	f.Skipped = true
	f.SkipReason = reason
	f.Change.ReviewStatus = core.FileSkipped
	f.Change.SkipReason.String = reason
	f.Change.SkipReason.Valid = true
	return f
}

// BlobURL builds a deep link to a file (and optionally a line) at a ref in
// the GitHub UI.
func BlobURL(repoFullName, ref, path string, line int) string {
	url := fmt.Sprintf("https://github.com/%s/blob/%s/%s", repoFullName, ref, path)
	if line > 0 {
		return fmt.Sprintf("%s#L%d", url, line)
	}
	return url
}
