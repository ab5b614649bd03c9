package llm

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/manoj645/pr-review-agent/internal/core"
)

// cleanSentinel is the exact token the prompt instructs the model to emit
// when a file has nothing worth flagging.
const cleanSentinel = "CODE_QUALITY_GOOD"

// nonActionablePhrases mark feedback with no concrete issue behind it.
var nonActionablePhrases = []string{
	"looks good",
	"no issues found",
	"no changes needed",
	"code quality is good",
	"nothing to suggest",
}

// ParseReviewResponse maps the model's block-formatted output onto the
// analyzer's discriminated result. Models are inconsistent about bullets and
// casing, so field markers are matched with and without the leading dash.
func ParseReviewResponse(response, filePath string) core.AnalysisResult {
	if strings.Contains(strings.ToUpper(response), cleanSentinel) {
		return core.CleanResult()
	}

	var suggestions []core.Suggestion
	current := map[string]string{}

	flush := func() {
		if s, ok := suggestionFromFields(current, filePath); ok {
			suggestions = append(suggestions, s)
		}
		current = map[string]string{}
	}

	sawField := false
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)

		key, value, ok := matchField(line)
		if !ok {
			continue
		}
		sawField = true

		// a new Type marker starts the next suggestion block
		if key == "type" && len(current) > 0 {
			flush()
		}
		current[key] = value
	}
	flush()

	if !sawField {
		return core.ParseFailureResult("no suggestion fields found in model output")
	}

	suggestions = FilterActionable(suggestions)
	if len(suggestions) == 0 {
		return core.CleanResult()
	}
	return core.AnalysisResult{Kind: core.AnalysisSuggestions, Suggestions: suggestions}
}

// matchField recognizes "- Type: bug" and "Type: bug" style lines.
func matchField(line string) (key, value string, ok bool) {
	trimmed := strings.TrimPrefix(line, "- ")
	for _, field := range []string{"Type", "Severity", "Title", "Description", "Suggestion", "Line Number"} {
		prefix := field + ":"
		if len(trimmed) >= len(prefix) && strings.EqualFold(trimmed[:len(prefix)], prefix) {
			k := strings.ToLower(strings.ReplaceAll(field, " ", "_"))
			return k, strings.TrimSpace(trimmed[len(prefix):]), true
		}
	}
	return "", "", false
}

func suggestionFromFields(fields map[string]string, filePath string) (core.Suggestion, bool) {
	if len(fields) == 0 {
		return core.Suggestion{}, false
	}

	sType := core.SuggestionType(strings.ToLower(fields["type"]))
	if !core.ValidSuggestionType(sType) {
		sType = core.TypeImprovement
	}
	severity := core.Severity(strings.ToLower(fields["severity"]))
	if !core.ValidSeverity(severity) {
		severity = core.SeverityMedium
	}

	s := core.Suggestion{
		FilePath:    filePath,
		Type:        sType,
		Severity:    severity,
		Title:       fields["title"],
		Description: fields["description"],
	}
	if v := fields["suggestion"]; v != "" {
		s.Remediation = sql.NullString{String: v, Valid: true}
	}
	s.RuleApplied = sql.NullString{String: string(sType), Valid: true}

	if raw := fields["line_number"]; raw != "" {
		// models sometimes emit "12-15" or "line 12"; take the first integer
		for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
			return r < '0' || r > '9'
		}) {
			if n, err := strconv.Atoi(tok); err == nil && n > 0 {
				s.LineNumber = sql.NullInt64{Int64: int64(n), Valid: true}
				break
			}
		}
	}

	return s, true
}

// FilterActionable drops suggestions that carry no concrete issue: empty
// titles and descriptions, or generic praise.
func FilterActionable(suggestions []core.Suggestion) []core.Suggestion {
	var kept []core.Suggestion
	for _, s := range suggestions {
		if strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Description) == "" {
			continue
		}
		if isNonActionable(s.Description) || (s.Description == "" && isNonActionable(s.Title)) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func isNonActionable(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range nonActionablePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
