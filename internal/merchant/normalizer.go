// Package merchant canonicalizes merchant names and transaction description
// text, and extracts merchant names from free-text descriptions.
package merchant

import (
	"regexp"
	"strings"
)

const maxDescriptionLength = 255

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	legalSuffixRe = regexp.MustCompile(`\s+(INC|LLC|LTD|CORP|CO)\.?$`)
	storeNumberRe = regexp.MustCompile(`\s*#\d+$`)
	longDigitsRe  = regexp.MustCompile(`\s*\d{10,}$`)
	invalidCharRe = regexp.MustCompile(`[^A-Za-z0-9 \-.,&*#]`)
	punctuationRe = regexp.MustCompile(`[^a-z0-9 ]`)

	// Description shapes that carry a merchant name up front, tried in order:
	// letters then a store/reference number, letters then a two-letter state
	// code, letters then a card-processor "*1234" suffix.
	extractPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([A-Za-z][A-Za-z\s]*?)\s*#?\d`),
		regexp.MustCompile(`^([A-Za-z][A-Za-z\s]*[A-Za-z])\s+[A-Z]{2}\b`),
		regexp.MustCompile(`^([A-Za-z][A-Za-z\s]*[A-Za-z])\*\d+`),
	}
)

// Canonicalize converts a merchant name to its canonical form: uppercased,
// trailing legal-entity and store-number suffixes removed, internal
// whitespace collapsed.
func Canonicalize(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = whitespaceRe.ReplaceAllString(s, " ")

	// Suffixes can stack ("ACME CORP. #1234"), so strip until stable.
	for {
		prev := s
		s = legalSuffixRe.ReplaceAllString(s, "")
		s = storeNumberRe.ReplaceAllString(s, "")
		s = longDigitsRe.ReplaceAllString(s, "")
		if s == prev {
			break
		}
	}

	return strings.TrimSpace(s)
}

// ExtractFromDescription attempts to pull a merchant name out of a raw
// transaction description. It returns the canonicalized first capture of the
// first matching pattern, or "" when no pattern applies.
func ExtractFromDescription(description string) string {
	desc := strings.TrimSpace(description)
	for _, re := range extractPatterns {
		if m := re.FindStringSubmatch(desc); m != nil {
			if name := Canonicalize(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// CleanDescription normalizes raw description text: trimmed, whitespace
// collapsed, characters outside [A-Za-z0-9 \-.,&*#] removed, and truncated
// to 255 characters.
func CleanDescription(description string) string {
	s := strings.TrimSpace(description)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = invalidCharRe.ReplaceAllString(s, "")
	if len(s) > maxDescriptionLength {
		s = strings.TrimSpace(s[:maxDescriptionLength])
	}
	return s
}

// CanonicalKey produces the lowercase grouping key used by subscription
// detection: canonical merchant form with punctuation removed.
func CanonicalKey(name string) string {
	s := strings.ToLower(Canonicalize(name))
	s = punctuationRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
