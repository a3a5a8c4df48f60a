// Package highlight extracts query-relevant sentence fragments from content.
package highlight

import "strings"

// MaxFragments caps the snippets returned per document.
const MaxFragments = 3

// Extract splits content on sentence terminators and returns up to
// MaxFragments trimmed fragments that contain any query term as a
// case-insensitive substring, in content order.
func Extract(content, query string) []string {
	terms := strings.Fields(strings.ToLower(query))
	if content == "" || len(terms) == 0 {
		return nil
	}

	fragments := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var out []string
	for _, frag := range fragments {
		trimmed := strings.TrimSpace(frag)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				out = append(out, trimmed)
				break
			}
		}
		if len(out) == MaxFragments {
			break
		}
	}
	return out
}
