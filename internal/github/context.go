package github

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// binaryExtensions are file types the analyzer can never usefully review.
var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".svg": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".rar": {}, ".7z": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wav": {},
}

// IsBinaryPath reports whether a filename has a known binary extension.
func IsBinaryPath(path string) bool {
	_, ok := binaryExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ChangedLines extracts the new-side line numbers added or modified by a
// unified-diff patch. Malformed hunk headers are skipped rather than trusted.
func ChangedLines(patch string) []int {
	var changed []int
	currentLine := -1

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			matches := hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) >= 2 {
				start, err := strconv.Atoi(matches[1])
				if err != nil {
					currentLine = -1
					continue
				}
				currentLine = start
			}
			continue
		}

		if currentLine == -1 {
			continue
		}

		// In a unified diff:
		// ' ' (space) is an unchanged line
		// '+' is an added line
		// '-' is a removed line (doesn't increment new line counter)
		switch {
		case strings.HasPrefix(line, "+"):
			changed = append(changed, currentLine)
			currentLine++
		case strings.HasPrefix(line, " "):
			currentLine++
		case strings.HasPrefix(line, "-"):
			continue
		}
	}

	return changed
}

// ExpandDiffContext renders the changed regions of a file surrounded by
// contextLines unchanged lines on each side, taken from the full head-side
// content. Overlapping windows are merged so the analyzer never sees the
// same line twice. When the patch yields no changed lines, the raw patch is
// returned as the best available context.
func ExpandDiffContext(patch, content string, contextLines int) string {
	changed := ChangedLines(patch)
	if len(changed) == 0 {
		return patch
	}

	lines := strings.Split(content, "\n")
	changedSet := make(map[int]struct{}, len(changed))
	for _, n := range changed {
		changedSet[n] = struct{}{}
	}

	type window struct{ start, end int } // 1-based, inclusive
	var windows []window
	for _, n := range changed {
		start := n - contextLines
		if start < 1 {
			start = 1
		}
		end := n + contextLines
		if end > len(lines) {
			end = len(lines)
		}
		windows = append(windows, window{start, end})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end+1 {
			if w.end > last.end {
				last.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}

	var b strings.Builder
	for i, w := range merged {
		if i > 0 {
			b.WriteString("---\n")
		}
		for n := w.start; n <= w.end; n++ {
			marker := "    "
			if _, ok := changedSet[n]; ok {
				marker = ">>> "
			}
			fmt.Fprintf(&b, "%sLine %d: %s\n", marker, n, lines[n-1])
		}
	}
	return b.String()
}
