// Package llm implements the analyzer: prompt assembly, the model call, and
// parsing of the model's structured output into review suggestions.
package llm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// PromptData carries everything the review prompt template needs.
type PromptData struct {
	Repository  string
	Branch      string
	FilePath    string
	Rules       string
	DiffContext string
}

// PromptManager renders embedded prompt templates.
type PromptManager struct {
	review *template.Template
}

// NewPromptManager parses the embedded prompt files.
func NewPromptManager() (*PromptManager, error) {
	content, err := promptFiles.ReadFile("prompts/code_review.prompt")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompt file: %w", err)
	}
	tmpl, err := template.New("code_review").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse code review prompt: %w", err)
	}
	return &PromptManager{review: tmpl}, nil
}

// RenderReviewPrompt produces the full prompt for one file's analysis.
func (pm *PromptManager) RenderReviewPrompt(data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := pm.review.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render review prompt: %w", err)
	}
	return buf.String(), nil
}
