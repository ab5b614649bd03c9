package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/manoj645/pr-review-agent/internal/config"
	"github.com/manoj645/pr-review-agent/internal/core"
)

// Analyzer sends one changed file's diff and context to the model together
// with the rule document and returns the parsed result. It performs no
// persistence; that is the orchestrator's responsibility.
type Analyzer interface {
	Analyze(ctx context.Context, event *core.ReviewEvent, file *core.FileWithDiff, rules string) (core.AnalysisResult, error)
}

type analyzer struct {
	model       llms.Model
	prompts     *PromptManager
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// NewAnalyzer creates an Analyzer backed by the configured OpenAI model.
// Temperature stays low so repeated runs over the same diff produce
// consistent findings.
func NewAnalyzer(cfg *config.Config, prompts *PromptManager, logger *slog.Logger) (Analyzer, error) {
	model, err := openai.New(
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithModel(cfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewAnalyzerWithModel(model, prompts, cfg.Temperature, cfg.MaxTokens, logger), nil
}

// NewAnalyzerWithModel wires an Analyzer around any langchaingo model,
// which keeps the analysis path testable without network access.
func NewAnalyzerWithModel(model llms.Model, prompts *PromptManager, temperature float64, maxTokens int, logger *slog.Logger) Analyzer {
	return &analyzer{
		model:       model,
		prompts:     prompts,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Analyze builds the prompt, invokes the model, and parses the response.
// Model failures are returned as errors so the orchestrator can record the
// file as skipped; they never abort sibling file analyses.
func (a *analyzer) Analyze(ctx context.Context, event *core.ReviewEvent, file *core.FileWithDiff, rules string) (core.AnalysisResult, error) {
	prompt, err := a.prompts.RenderReviewPrompt(PromptData{
		Repository:  event.RepoFullName,
		Branch:      event.HeadRef,
		FilePath:    file.Change.Path,
		Rules:       rules,
		DiffContext: file.DiffContext,
	})
	if err != nil {
		return core.AnalysisResult{}, err
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		a.logger.Error("model call failed", "path", file.Change.Path, "error", err)
		return core.AnalysisResult{}, fmt.Errorf("model call failed for %s: %w", file.Change.Path, err)
	}

	result := ParseReviewResponse(response, file.Change.Path)
	if result.Kind == core.AnalysisParseFailure {
		a.logger.Warn("could not parse model output", "path", file.Change.Path, "reason", result.Reason)
	}
	return result, nil
}
