// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"database/sql"
	"time"
)

// PRStatus is the lifecycle state of a pull request.
type PRStatus string

const (
	PRStatusOpen   PRStatus = "open"
	PRStatusClosed PRStatus = "closed"
	PRStatusMerged PRStatus = "merged"
)

// SuggestionType categorizes a review suggestion.
type SuggestionType string

const (
	TypeImprovement   SuggestionType = "improvement"
	TypeBug           SuggestionType = "bug"
	TypeStyle         SuggestionType = "style"
	TypeSecurity      SuggestionType = "security"
	TypePerformance   SuggestionType = "performance"
	TypeDocumentation SuggestionType = "documentation"
	TypeTesting       SuggestionType = "testing"
)

// Severity ranks how urgent a suggestion is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ValidSuggestionType reports whether s is one of the known suggestion types.
func ValidSuggestionType(s SuggestionType) bool {
	switch s {
	case TypeImprovement, TypeBug, TypeStyle, TypeSecurity,
		TypePerformance, TypeDocumentation, TypeTesting:
		return true
	}
	return false
}

// ValidSeverity reports whether s is one of the known severity levels.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// PullRequest is a pull request persisted by the service. A PR is uniquely
// identified by its (Repository, PRNumber) pair; the internal ID is a storage
// detail that webhook redelivery must never duplicate.
type PullRequest struct {
	ID          int64          `db:"id"`
	Repository  string         `db:"repository"` // "owner/name"
	PRNumber    int            `db:"pr_number"`
	GitHubID    int64          `db:"github_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      PRStatus       `db:"status"`
	Author      string         `db:"author"`
	HTMLURL     sql.NullString `db:"html_url"`
	BranchName  sql.NullString `db:"branch_name"`
	BaseBranch  sql.NullString `db:"base_branch"`
	HeadSHA     sql.NullString `db:"head_sha"`
	BaseSHA     sql.NullString `db:"base_sha"`
	Additions   int            `db:"additions"`
	Deletions   int            `db:"deletions"`
	FileCount   int            `db:"changed_files"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// FileReviewStatus records what the pipeline did with a changed file.
type FileReviewStatus string

const (
	FileAnalyzed FileReviewStatus = "analyzed"
	FileSkipped  FileReviewStatus = "skipped"
)

// FileChange is one changed file belonging to a pull request. File rows are
// replaced wholesale on every review run so stale entries from a prior
// revision never accumulate.
type FileChange struct {
	ID            int64            `db:"id"`
	PullRequestID int64            `db:"pull_request_id"`
	Filename      string           `db:"filename"`
	Path          string           `db:"file_path"`
	Status        string           `db:"status"` // added|modified|deleted
	Additions     int              `db:"additions"`
	Deletions     int              `db:"deletions"`
	Changes       int              `db:"changes"`
	ReviewStatus  FileReviewStatus `db:"review_status"`
	SkipReason    sql.NullString   `db:"skip_reason"`
}

// Suggestion is a single actionable finding produced by the analyzer for a
// specific file and, when known, line. Suggestions are write-once per run;
// a later run replaces the whole set rather than mutating rows.
type Suggestion struct {
	ID            int64          `db:"id"`
	PullRequestID int64          `db:"pull_request_id"`
	FileID        int64          `db:"file_id"`
	FilePath      string         `db:"file_path"`
	LineNumber    sql.NullInt64  `db:"line_number"`
	Type          SuggestionType `db:"suggestion_type"`
	Severity      Severity       `db:"severity"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Remediation   sql.NullString `db:"suggestion"`
	GitHubURL     sql.NullString `db:"github_url"`
	RuleApplied   sql.NullString `db:"rule_applied"`
	CreatedAt     time.Time      `db:"created_at"`
}

// FileWithDiff couples a changed file with the material the analyzer needs:
// the raw patch and the diff expanded with surrounding context lines.
// Oversized files carry Skipped=true and empty content instead of a
// truncated body, which would produce misleading analysis.
type FileWithDiff struct {
	Change      FileChange
	Patch       string
	Content     string
	DiffContext string
	Skipped     bool
	SkipReason  string
}
