package llm

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestRuleSource_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	if err := os.WriteFile(path, []byte("# Team Rules\n1. No globals"), 0o600); err != nil {
		t.Fatal(err)
	}

	rs := NewRuleSource(path, testLogger())
	if got := rs.Rules(); got != "# Team Rules\n1. No globals" {
		t.Errorf("Rules() = %q", got)
	}
}

func TestRuleSource_FallsBackToDefaults(t *testing.T) {
	rs := NewRuleSource(filepath.Join(t.TempDir(), "missing.md"), testLogger())
	if rs.Rules() != defaultRules {
		t.Error("expected default rules when file is missing")
	}
}

func TestRuleSource_ReloadKeepsOldRulesOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}

	rs := NewRuleSource(path, testLogger())
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if err := rs.Reload(); err == nil {
		t.Fatal("expected reload error after file removal")
	}
	if got := rs.Rules(); got != "v1" {
		t.Errorf("Rules() after failed reload = %q, want %q", got, "v1")
	}
}

func TestRuleSource_ReloadPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.md")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatal(err)
	}

	rs := NewRuleSource(path, testLogger())
	if err := os.WriteFile(path, []byte("v2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := rs.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := rs.Rules(); got != "v2" {
		t.Errorf("Rules() = %q, want v2", got)
	}
}
