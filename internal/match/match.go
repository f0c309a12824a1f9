/*
Package match applies the two-stage organization + keyword filter to an
artifact's extracted text.
*/
package match

import (
	"regexp"
	"strings"

	"github.com/GGRoca/dou-antt-clipping/internal/types"
)

// contextSize is how many bytes of context are kept on each side of a
// keyword hit.
const contextSize = 250

// Hit is one keyword found in the text, with surrounding context.
type Hit struct {
	Keyword string
	Snippet string
}

// FindHits searches text against one filter, case-insensitively. The
// organization substring is a gate: without it no keyword search happens,
// since most bundles never mention the tracked organization. Each keyword
// reports at most its first occurrence, in the filter's configured order.
func FindHits(text string, filter types.FilterConfig) []Hit {
	if indexFold(text, filter.OrgaoContains) < 0 {
		return nil
	}

	var hits []Hit
	for _, keyword := range filter.KeywordsAny {
		idx := indexFold(text, keyword)
		if idx < 0 {
			continue
		}
		hits = append(hits, Hit{
			Keyword: keyword,
			Snippet: snippet(text, idx),
		})
	}

	return hits
}

// indexFold returns the byte offset of the first case-insensitive occurrence
// of substr in text, or -1. The offset is located in text itself, never in a
// lowercased copy: lowercasing can change byte lengths (e.g. İ shrinks, Ⱥ
// grows), which would shift the snippet window off the hit.
func indexFold(text, substr string) int {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(substr))
	if loc := re.FindStringIndex(text); loc != nil {
		return loc[0]
	}
	return -1
}

// snippet clamps a contextSize window on each side of the hit position to
// the text bounds and trims the edges.
func snippet(text string, idx int) string {
	start := idx - contextSize
	if start < 0 {
		start = 0
	}
	end := idx + contextSize
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}
