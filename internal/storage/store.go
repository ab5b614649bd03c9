// Package storage is the persistence gateway: upserts for PR metadata and
// the atomic replace of per-PR file and suggestion sets, plus the read
// operations the dashboard API consumes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/manoj645/pr-review-agent/internal/core"
)

// ErrNotFound is returned by lookups for records that do not exist.
var ErrNotFound = errors.New("storage: record not found")

// Store defines the interface for all database operations.
type Store interface {
	UpsertPullRequest(ctx context.Context, event *core.ReviewEvent) (*core.PullRequest, error)
	GetPullRequest(ctx context.Context, id int64) (*core.PullRequest, error)
	ListPullRequests(ctx context.Context) ([]core.PullRequest, error)
	ListFiles(ctx context.Context, prID int64) ([]core.FileChange, error)
	ListSuggestions(ctx context.Context, prID int64) ([]core.Suggestion, error)
	ReplaceRunResults(ctx context.Context, prID int64, files []core.FileChange, suggestions []core.Suggestion) error
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// UpsertPullRequest creates or updates the PR row keyed by
// (repository, pr_number), so webhook redelivery is idempotent rather than
// additive.
func (s *postgresStore) UpsertPullRequest(ctx context.Context, event *core.ReviewEvent) (*core.PullRequest, error) {
	query := `
		INSERT INTO pull_requests (
			repository, pr_number, github_id, title, description, status, author,
			html_url, branch_name, base_branch, head_sha, base_sha, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (repository, pr_number) DO UPDATE SET
			github_id = EXCLUDED.github_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			author = EXCLUDED.author,
			html_url = EXCLUDED.html_url,
			branch_name = EXCLUDED.branch_name,
			base_branch = EXCLUDED.base_branch,
			head_sha = EXCLUDED.head_sha,
			base_sha = EXCLUDED.base_sha,
			updated_at = EXCLUDED.updated_at
		RETURNING id, repository, pr_number, github_id, title, description, status, author,
			html_url, branch_name, base_branch, head_sha, base_sha,
			additions, deletions, changed_files, created_at, updated_at`

	var pr core.PullRequest
	err := s.db.GetContext(ctx, &pr, query,
		event.RepoFullName, event.PRNumber, event.GitHubID, event.PRTitle,
		nullString(event.PRBody), event.PRStatus, event.Author,
		nullString(event.HTMLURL), nullString(event.HeadRef), nullString(event.BaseRef),
		nullString(event.HeadSHA), nullString(event.BaseSHA), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pull request %s: %w", event.Ref(), err)
	}
	return &pr, nil
}

// GetPullRequest retrieves one PR by its internal id.
func (s *postgresStore) GetPullRequest(ctx context.Context, id int64) (*core.PullRequest, error) {
	var pr core.PullRequest
	err := s.db.GetContext(ctx, &pr,
		`SELECT * FROM pull_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: pull request %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &pr, nil
}

// ListPullRequests returns all PRs, newest first.
func (s *postgresStore) ListPullRequests(ctx context.Context) ([]core.PullRequest, error) {
	var prs []core.PullRequest
	err := s.db.SelectContext(ctx, &prs,
		`SELECT * FROM pull_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	return prs, nil
}

// ListFiles returns the changed files recorded by the latest run for a PR.
func (s *postgresStore) ListFiles(ctx context.Context, prID int64) ([]core.FileChange, error) {
	var files []core.FileChange
	err := s.db.SelectContext(ctx, &files,
		`SELECT * FROM files WHERE pull_request_id = $1 ORDER BY file_path`, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files for PR %d: %w", prID, err)
	}
	return files, nil
}

// ListSuggestions returns the suggestions recorded by the latest run for a PR.
func (s *postgresStore) ListSuggestions(ctx context.Context, prID int64) ([]core.Suggestion, error) {
	var suggestions []core.Suggestion
	err := s.db.SelectContext(ctx, &suggestions,
		`SELECT * FROM suggestions WHERE pull_request_id = $1 ORDER BY file_path, line_number`, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions for PR %d: %w", prID, err)
	}
	return suggestions, nil
}

// ReplaceRunResults swaps the PR's file rows and suggestion rows for the
// given set inside a single transaction. Readers either see the previous
// run's complete set or the new one, never a mix; on any failure the
// transaction rolls back and the prior set stays intact.
func (s *postgresStore) ReplaceRunResults(ctx context.Context, prID int64, files []core.FileChange, suggestions []core.Suggestion) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// suggestions reference files, so they go first
	if _, err = tx.ExecContext(ctx, `DELETE FROM suggestions WHERE pull_request_id = $1`, prID); err != nil {
		return fmt.Errorf("failed to clear suggestions for PR %d: %w", prID, err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE pull_request_id = $1`, prID); err != nil {
		return fmt.Errorf("failed to clear files for PR %d: %w", prID, err)
	}

	fileIDs := make(map[string]int64, len(files))
	additions, deletions := 0, 0
	for i := range files {
		f := &files[i]
		additions += f.Additions
		deletions += f.Deletions

		var id int64
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO files (pull_request_id, filename, file_path, status,
				additions, deletions, changes, review_status, skip_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			prID, f.Filename, f.Path, f.Status,
			f.Additions, f.Deletions, f.Changes, f.ReviewStatus, f.SkipReason,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert file %s: %w", f.Path, err)
		}
		fileIDs[f.Path] = id
	}

	now := time.Now().UTC()
	for i := range suggestions {
		sg := &suggestions[i]
		fileID, ok := fileIDs[sg.FilePath]
		if !ok {
			return fmt.Errorf("suggestion references unknown file %s", sg.FilePath)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO suggestions (pull_request_id, file_id, file_path, line_number,
				suggestion_type, severity, title, description, suggestion,
				github_url, rule_applied, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			prID, fileID, sg.FilePath, sg.LineNumber,
			sg.Type, sg.Severity, sg.Title, sg.Description, sg.Remediation,
			sg.GitHubURL, sg.RuleApplied, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion for %s: %w", sg.FilePath, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE pull_requests
		SET additions = $2, deletions = $3, changed_files = $4, updated_at = $5
		WHERE id = $1`,
		prID, additions, deletions, len(files), now,
	); err != nil {
		return fmt.Errorf("failed to update PR %d statistics: %w", prID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run results for PR %d: %w", prID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
