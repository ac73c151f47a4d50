// Package diffview renders unified diffs of generated files.
package diffview

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff of before and after for path, or an empty
// string when they are equal. A nil before renders as a new file.
func Unified(path string, before, after []byte) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}
	from := "a/" + path
	if before == nil {
		from = "/dev/null"
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(string(before)),
		B:        splitLines(string(after)),
		FromFile: from,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff %q: %w", path, err)
	}
	return diff, nil
}

// Stat summarizes a unified diff as added and removed line counts.
func Stat(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}

// splitLines keeps line endings and, unlike difflib.SplitLines, adds no
// phantom empty line after a final newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
