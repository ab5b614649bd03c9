package core

import (
	"fmt"

	"github.com/google/go-github/v73/github"
)

// handledActions are the pull_request actions that trigger processing.
var handledActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
	"closed":      true,
}

// ReviewEvent represents a simplified, internal view of a pull-request
// trigger, whether it arrived as a webhook delivery or a manual re-run.
type ReviewEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber      int
	PRTitle       string
	PRBody        string
	PRStatus      PRStatus
	Author        string
	GitHubID      int64
	HTMLURL       string
	HeadRef       string
	BaseRef       string
	HeadSHA       string
	BaseSHA       string
	Action        string
	PullRequestID int64 // storage id, set once the PR row is upserted
}

// Ref returns the stable PR reference used for claim keying, independent of
// the internal storage id.
func (e *ReviewEvent) Ref() string {
	return fmt.Sprintf("%s#%d", e.RepoFullName, e.PRNumber)
}

// EventFromPullRequest transforms a raw GitHub PullRequestEvent into the
// application's internal ReviewEvent representation. It acts as an
// anti-corruption layer, validating the payload before any job is scheduled
// and rejecting actions the pipeline does not handle.
func EventFromPullRequest(event *github.PullRequestEvent) (*ReviewEvent, error) {
	action := event.GetAction()
	if !handledActions[action] {
		return nil, fmt.Errorf("action %q is not handled", action)
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	pr := event.GetPullRequest()
	if pr == nil {
		return nil, fmt.Errorf("pull request payload is missing from the event")
	}
	if pr.GetNumber() <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", pr.GetNumber())
	}
	if pr.GetUser() == nil || pr.GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("author information is missing from the event")
	}

	status := PRStatusOpen
	switch {
	case pr.GetMerged():
		status = PRStatusMerged
	case pr.GetState() == "closed":
		status = PRStatusClosed
	}

	return &ReviewEvent{
		RepoOwner:    repo.GetOwner().GetLogin(),
		RepoName:     repo.GetName(),
		RepoFullName: repo.GetFullName(),

		PRNumber: pr.GetNumber(),
		PRTitle:  pr.GetTitle(),
		PRBody:   pr.GetBody(),
		PRStatus: status,
		Author:   pr.GetUser().GetLogin(),
		GitHubID: pr.GetID(),
		HTMLURL:  pr.GetHTMLURL(),
		HeadRef:  pr.GetHead().GetRef(),
		BaseRef:  pr.GetBase().GetRef(),
		HeadSHA:  pr.GetHead().GetSHA(),
		BaseSHA:  pr.GetBase().GetSHA(),
		Action:   action,
	}, nil
}

// ShouldReview reports whether the event's action warrants a fresh analysis
// run. Closed PRs are recorded but not re-analyzed.
func (e *ReviewEvent) ShouldReview() bool {
	switch e.Action {
	case "opened", "synchronize", "reopened", "manual":
		return true
	}
	return false
}
