package llm

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// defaultRules is the fallback standards document used when the configured
// rules file is missing, so the analyzer always has something to enforce.
const defaultRules = `# Code Standards for AI Code Review

## Code Quality Rules:
1. Functions should stay short and focused
2. Use descriptive variable names
3. Add proper error handling
4. Include documentation for exported code
5. Avoid magic numbers, use constants
6. Follow the language's standard formatting guidelines
7. Use type annotations where the language supports them
8. Write testable code
9. Consider performance implications
10. Ensure code readability
`

// RuleSource loads the custom coding-standards document and caches it for
// the process lifetime. Reload allows operators to pick up rule edits
// without a restart.
type RuleSource struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	rules string
}

// NewRuleSource reads the rules document at path, falling back to the
// built-in defaults when the file does not exist.
func NewRuleSource(path string, logger *slog.Logger) *RuleSource {
	rs := &RuleSource{path: path, logger: logger}
	if err := rs.Reload(); err != nil {
		logger.Warn("custom rules file not readable, using defaults", "path", path, "error", err)
		rs.mu.Lock()
		rs.rules = defaultRules
		rs.mu.Unlock()
	}
	return rs
}

// Rules returns the cached rule text.
func (rs *RuleSource) Rules() string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.rules
}

// Reload re-reads the rules document from disk. On failure the previously
// cached text stays in effect.
func (rs *RuleSource) Reload() error {
	data, err := os.ReadFile(rs.path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", rs.path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("rules file %s is empty", rs.path)
	}

	rs.mu.Lock()
	rs.rules = string(data)
	rs.mu.Unlock()
	rs.logger.Info("loaded custom review rules", "path", rs.path, "bytes", len(data))
	return nil
}
