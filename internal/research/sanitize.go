// Package research runs the per-section research calls and turns untrusted
// model output into validated section records.
package research

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxContextChars caps the operator-supplied business context before it is
// embedded in any prompt.
const maxContextChars = 8000

// injectionPatterns are neutralized before the business context reaches a
// prompt. The context is operator-supplied free text and may quote sources
// that themselves contain instruction-like phrasing.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s`),
	regexp.MustCompile(`(?i)system\s*prompt\s*:`),
	regexp.MustCompile(`(?i)<\s*/?\s*system\s*>`),
	regexp.MustCompile(`(?i)\bnew\s+instructions?\s*:`),
}

// SanitizeContext length-caps the business context and neutralizes
// prompt-injection phrasing. The result is safe to embed verbatim in a
// user prompt. A non-positive max falls back to the default cap.
func SanitizeContext(businessContext string, max int) string {
	if max <= 0 {
		max = maxContextChars
	}
	s := strings.TrimSpace(businessContext)
	if len(s) > max {
		// Back off to a rune boundary so the cap never leaves a split
		// multibyte character in the prompt.
		for max > 0 && !utf8.RuneStart(s[max]) {
			max--
		}
		s = s[:max]
	}
	for _, re := range injectionPatterns {
		s = re.ReplaceAllString(s, "[removed]")
	}
	return s
}
