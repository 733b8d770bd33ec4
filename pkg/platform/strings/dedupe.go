// Package strings holds small string-slice helpers shared across domains.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace from each element and drops duplicates and
// empties, preserving first-occurrence order. Hold scopes and category
// lists arrive from clients in whatever shape they were typed; normalizing
// them once here keeps scope matching exact downstream.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
