package core

// AnalysisKind discriminates the analyzer's per-file result so the
// orchestrator's handling stays exhaustive: real findings, a clean bill of
// health, and unparseable model output are distinct states, not sentinels.
type AnalysisKind int

const (
	// AnalysisSuggestions indicates the model produced actionable findings.
	AnalysisSuggestions AnalysisKind = iota
	// AnalysisClean indicates the model judged the file fine, or every
	// finding was filtered as non-actionable noise.
	AnalysisClean
	// AnalysisParseFailure indicates the model responded but the output
	// could not be mapped into suggestions.
	AnalysisParseFailure
)

// AnalysisResult is the discriminated outcome of analyzing one file.
type AnalysisResult struct {
	Kind        AnalysisKind
	Suggestions []Suggestion
	Reason      string // populated for AnalysisParseFailure
}

// CleanResult returns a result meaning "nothing to report".
func CleanResult() AnalysisResult {
	return AnalysisResult{Kind: AnalysisClean}
}

// ParseFailureResult returns a result carrying the parse failure reason.
func ParseFailureResult(reason string) AnalysisResult {
	return AnalysisResult{Kind: AnalysisParseFailure, Reason: reason}
}
