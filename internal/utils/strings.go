package utils

import "strings"

// ParseList splits a comma-separated flag value and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseList(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}
