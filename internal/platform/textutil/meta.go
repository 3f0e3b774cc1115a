// Package textutil provides small text normalisation helpers shared by the
// service layer.
package textutil

import "strings"

// NormalizeMeta trims metadata keys and drops entries whose key becomes empty.
// The input map is never mutated; an empty result collapses to nil.
func NormalizeMeta(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]any, len(values))
	for key, value := range values {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		result[trimmed] = value
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
