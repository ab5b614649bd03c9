package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/manoj645/pr-review-agent/internal/config"
	"github.com/manoj645/pr-review-agent/internal/core"
	"github.com/manoj645/pr-review-agent/internal/github"
	"github.com/manoj645/pr-review-agent/internal/llm"
	"github.com/manoj645/pr-review-agent/internal/metrics"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

// ReviewJob runs the fetch-analyze-persist pipeline for one PR trigger.
// The dispatcher guarantees the per-PR claim is held for the duration of Run.
type ReviewJob struct {
	cfg      *config.Config
	gh       github.Client
	analyzer llm.Analyzer
	rules    *llm.RuleSource
	store    storage.Store
	logger   *slog.Logger
}

// NewReviewJob creates a ReviewJob with its collaborators.
func NewReviewJob(cfg *config.Config, gh github.Client, analyzer llm.Analyzer, rules *llm.RuleSource, store storage.Store, logger *slog.Logger) *ReviewJob {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if gh == nil {
		panic("github client cannot be nil")
	}
	if analyzer == nil {
		panic("analyzer cannot be nil")
	}
	if store == nil {
		panic("store cannot be nil")
	}
	return &ReviewJob{cfg: cfg, gh: gh, analyzer: analyzer, rules: rules, store: store, logger: logger}
}

// Run executes one review run. Fetch-stage and persistence errors abort the
// run; per-file analysis errors are isolated and recorded as skips so the
// remaining files still complete.
func (j *ReviewJob) Run(ctx context.Context, event *core.ReviewEvent) (core.RunOutcome, error) {
	if err := j.validateInputs(ctx, event); err != nil {
		return core.RunOutcome{Result: core.RunFailed}, fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review run", "pr", event.Ref(), "action", event.Action)

	pr, err := j.store.UpsertPullRequest(ctx, event)
	if err != nil {
		return core.RunOutcome{Result: core.RunFailed}, err
	}
	event.PullRequestID = pr.ID

	if event.HeadSHA == "" {
		ghPR, err := j.gh.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
		if err != nil {
			return core.RunOutcome{Result: core.RunFailed}, fmt.Errorf("failed to get PR details: %w", err)
		}
		if ghPR.GetHead().GetSHA() == "" {
			return core.RunOutcome{Result: core.RunFailed}, fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
		}
		event.HeadSHA = ghPR.GetHead().GetSHA()
		event.HeadRef = ghPR.GetHead().GetRef()
	}

	changes, err := j.gh.FetchChanges(ctx, event)
	if err != nil {
		// no inline retry: the claim is released by the dispatcher so the
		// next delivery (GitHub's own retry or a manual re-trigger) can try
		j.logger.Error("failed to fetch changed files", "pr", event.Ref(), "retriable", github.Retriable(err), "error", err)
		return core.RunOutcome{Result: core.RunFailed}, fmt.Errorf("failed to fetch changed files: %w", err)
	}

	files, suggestions, failures := j.analyzeFiles(ctx, event, changes)

	if err := j.store.ReplaceRunResults(ctx, pr.ID, files, suggestions); err != nil {
		return core.RunOutcome{Result: core.RunFailed}, fmt.Errorf("failed to persist run results: %w", err)
	}

	outcome := core.RunOutcome{
		Result:        core.RunSucceeded,
		FilesReviewed: len(files) - countSkipped(files),
		FilesSkipped:  countSkipped(files),
		Suggestions:   len(suggestions),
	}
	if failures > 0 {
		outcome.Result = core.RunPartial
	}

	j.logger.Info("review run completed",
		"pr", event.Ref(),
		"result", outcome.Result,
		"files_reviewed", outcome.FilesReviewed,
		"files_skipped", outcome.FilesSkipped,
		"suggestions", outcome.Suggestions,
	)
	return outcome, nil
}

// analyzeFiles runs the analyzer over every analyzable file with bounded
// concurrency. One file's failure never aborts its siblings; it is recorded
// on the file row instead.
func (j *ReviewJob) analyzeFiles(ctx context.Context, event *core.ReviewEvent, changes []core.FileWithDiff) ([]core.FileChange, []core.Suggestion, int) {
	files := make([]core.FileChange, len(changes))
	perFile := make([][]core.Suggestion, len(changes))
	failures := 0

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.MaxFileConcurrency)

	for i := range changes {
		files[i] = changes[i].Change

		if changes[i].Skipped {
			j.logger.Info("skipping file", "path", changes[i].Change.Path, "reason", changes[i].SkipReason)
			continue
		}

		g.Go(func() error {
			fileCtx, cancel := context.WithTimeout(gctx, j.cfg.AnalyzeTimeout)
			defer cancel()

			result, err := j.analyzer.Analyze(fileCtx, event, &changes[i], j.rules.Rules())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				metrics.AnalyzerCalls.WithLabelValues("error").Inc()
				markSkipped(&files[i], fmt.Sprintf("analysis failed: %v", err))
				failures++
			case result.Kind == core.AnalysisParseFailure:
				metrics.AnalyzerCalls.WithLabelValues("parse_failure").Inc()
				markSkipped(&files[i], fmt.Sprintf("unparseable analyzer output: %s", result.Reason))
				failures++
			default:
				metrics.AnalyzerCalls.WithLabelValues("success").Inc()
				perFile[i] = j.decorate(event, result.Suggestions)
			}
			return nil
		})
	}
	_ = g.Wait()

	var suggestions []core.Suggestion
	for _, s := range perFile {
		suggestions = append(suggestions, s...)
	}
	return files, suggestions, failures
}

// decorate fills in the deep links a suggestion needs for display.
func (j *ReviewJob) decorate(event *core.ReviewEvent, suggestions []core.Suggestion) []core.Suggestion {
	ref := event.HeadSHA
	if ref == "" {
		ref = event.HeadRef
	}
	for i := range suggestions {
		url := github.BlobURL(event.RepoFullName, ref, suggestions[i].FilePath, int(suggestions[i].LineNumber.Int64))
		suggestions[i].GitHubURL = sql.NullString{String: url, Valid: true}
	}
	return suggestions
}

// validateInputs ensures the event contains all required fields.
func (j *ReviewJob) validateInputs(ctx context.Context, event *core.ReviewEvent) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.RepoFullName == "" {
		return fmt.Errorf("repository full name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	return nil
}

func markSkipped(f *core.FileChange, reason string) {
	f.ReviewStatus = core.FileSkipped
	f.SkipReason = sql.NullString{String: reason, Valid: true}
}

func countSkipped(files []core.FileChange) int {
	n := 0
	for i := range files {
		if files[i].ReviewStatus == core.FileSkipped {
			n++
		}
	}
	return n
}
