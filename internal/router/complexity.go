package router

import (
	"regexp"
	"strings"
)

// Domain terms that mark a question as complex regardless of length.
var complexTermsRegex = regexp.MustCompile(`(?i)theology|jurisprudence|aqeedah|fiqh|hadith|scholarship`)

// Classify scores a message's complexity from its text. Pure and
// deterministic: long messages (>100 words) or messages containing
// domain-technical terminology are complex, medium ones (>50 words)
// moderate, everything else simple.
func Classify(text string) Complexity {
	wordCount := len(strings.Fields(text))

	switch {
	case wordCount > 100 || complexTermsRegex.MatchString(text):
		return ComplexityComplex
	case wordCount > 50:
		return ComplexityModerate
	default:
		return ComplexitySimple
	}
}
