// Package strings normalizes free-form user input.
package strings

import (
	"strings"
)

// NormalizeTags turns loosely typed enum tags into their canonical form:
// " teaching  students" and "TEACHING_STUDENTS" both become TEACHING_STUDENTS.
// Blank entries are dropped and duplicates collapse, keeping first-seen order.
// A nil input stays nil.
func NormalizeTags(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		tag := strings.ToUpper(strings.Join(strings.Fields(v), "_"))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
