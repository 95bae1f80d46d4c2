// Package similarity provides normalized string similarity scoring for
// duplicate detection.
package similarity

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Score returns a similarity in [0, 1] between two strings, computed as
// 1 − editDistance(a, b) / max(len(a), len(b)). Two empty strings are
// identical (1.0). Comparison is case-sensitive; callers normalize case.
func Score(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)

	maxLen := len(ar)
	if len(br) > maxLen {
		maxLen = len(br)
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.DistanceForStrings(ar, br, levenshtein.DefaultOptions)
	return 1.0 - float64(dist)/float64(maxLen)
}
