package github

import (
	"strings"
	"testing"
)

const samplePatch = `@@ -1,4 +1,5 @@
 package main
+import "fmt"

 func main() {
-	println("hi")
+	fmt.Println("hi")
 }`

func TestChangedLines(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  []int
	}{
		{
			name:  "single hunk with add and modify",
			patch: samplePatch,
			want:  []int{2, 5},
		},
		{
			name: "multiple hunks",
			patch: `@@ -1 +1 @@
-old
+new
@@ -10,2 +10,3 @@
 context
+added
 context`,
			want: []int{1, 11},
		},
		{
			name:  "malformed hunk header is skipped",
			patch: "@@ not a hunk @@\n+orphan line",
			want:  nil,
		},
		{
			name:  "pure deletion yields nothing",
			patch: "@@ -5,2 +5 @@\n context\n-gone",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChangedLines(tt.patch)
			if len(got) != len(tt.want) {
				t.Fatalf("ChangedLines() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ChangedLines()[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExpandDiffContext(t *testing.T) {
	content := strings.Join([]string{
		"package main",      // 1
		`import "fmt"`,      // 2
		"",                  // 3
		"func main() {",     // 4
		`	fmt.Println("hi")`, // 5
		"}",                 // 6
	}, "\n")

	out := ExpandDiffContext(samplePatch, content, 1)

	if !strings.Contains(out, ">>> Line 2:") {
		t.Errorf("expected changed line 2 to be marked, got:\n%s", out)
	}
	if !strings.Contains(out, ">>> Line 5:") {
		t.Errorf("expected changed line 5 to be marked, got:\n%s", out)
	}
	if !strings.Contains(out, "    Line 1: package main") {
		t.Errorf("expected context line 1, got:\n%s", out)
	}
	if !strings.Contains(out, "    Line 6: }") {
		t.Errorf("expected context line 6, got:\n%s", out)
	}
}

func TestExpandDiffContext_MergesOverlappingWindows(t *testing.T) {
	content := strings.Join([]string{"a", "b", "c", "d", "e"}, "\n")
	patch := "@@ -1,5 +1,5 @@\n-x\n+a\n b\n-y\n+c\n d\n e"

	out := ExpandDiffContext(patch, content, 2)

	// lines 1 and 3 changed with 2 context lines each; the windows overlap
	// and must merge into a single block with no separator
	if strings.Contains(out, "---") {
		t.Errorf("overlapping windows should merge, got:\n%s", out)
	}
	if strings.Count(out, "Line 2:") != 1 {
		t.Errorf("line 2 should appear exactly once, got:\n%s", out)
	}
}

func TestExpandDiffContext_FallsBackToPatch(t *testing.T) {
	patch := "@@ -1 +1 @@\n-only\n context"
	if got := ExpandDiffContext(patch, "content", 3); got != patch {
		t.Errorf("expected raw patch fallback, got %q", got)
	}
}

func TestIsBinaryPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"logo.PNG", true},
		{"archive.tar", true},
		{"main.go", false},
		{"README.md", false},
		{"lib/native.so", true},
	}
	for _, tt := range tests {
		if got := IsBinaryPath(tt.path); got != tt.want {
			t.Errorf("IsBinaryPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBlobURL(t *testing.T) {
	got := BlobURL("owner/repo", "abc123", "pkg/main.go", 42)
	want := "https://github.com/owner/repo/blob/abc123/pkg/main.go#L42"
	if got != want {
		t.Errorf("BlobURL() = %q, want %q", got, want)
	}

	got = BlobURL("owner/repo", "abc123", "pkg/main.go", 0)
	if strings.Contains(got, "#L") {
		t.Errorf("BlobURL() without line should have no anchor, got %q", got)
	}
}
