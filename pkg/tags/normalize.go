package tags

import "strings"

// Normalize trims each tag, drops the ones that are empty after trimming, and
// removes exact duplicates while preserving first-occurrence order. Matching
// is case-sensitive, so "Tag1" and "tag1" survive as two tags. A nil slice
// yields an empty result, never an error.
func Normalize(input []string) []string {
	normalized := make([]string, 0, len(input))
	seen := make(map[string]struct{}, len(input))

	for _, tag := range input {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	return normalized
}
