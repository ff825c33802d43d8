// Package diff renders unified diffs for staged modifications.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff between two versions of a file.
func Unified(path, before, after string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// Stats summarizes a unified diff.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Count tallies added and removed lines in a unified diff.
func Count(unified string) Stats {
	var s Stats
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			s.Added++
		case strings.HasPrefix(line, "-"):
			s.Removed++
		}
	}
	return s
}
