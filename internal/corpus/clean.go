package corpus

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean trims and NFC-normalizes each passage, drops empty ones, and drops exact duplicates
// keeping the first occurrence. Order is otherwise preserved.
func Clean(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = norm.NFC.String(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
