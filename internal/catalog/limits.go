package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Constraint is the length instruction appended to this type's prompt, or ""
// when the type has no limits.
func (ct ContentType) Constraint() string {
	var parts []string
	if ct.MaxChars > 0 {
		parts = append(parts, fmt.Sprintf("Keep it to at most %d characters.", ct.MaxChars))
	}
	switch {
	case ct.MinWords > 0 && ct.MaxWords > 0:
		parts = append(parts, fmt.Sprintf("Write between %d and %d words.", ct.MinWords, ct.MaxWords))
	case ct.MaxWords > 0:
		parts = append(parts, fmt.Sprintf("Use no more than %d words.", ct.MaxWords))
	case ct.MinWords > 0:
		parts = append(parts, fmt.Sprintf("Write at least %d words.", ct.MinWords))
	}
	return strings.Join(parts, " ")
}

// Check reports a human-readable warning when content breaks the type's
// limits. Content is never modified.
func (ct ContentType) Check(content string) string {
	var problems []string
	if ct.MaxChars > 0 {
		if n := utf8.RuneCountInString(content); n > ct.MaxChars {
			problems = append(problems, fmt.Sprintf("%d characters (limit %d)", n, ct.MaxChars))
		}
	}
	words := len(strings.Fields(content))
	if ct.MaxWords > 0 && words > ct.MaxWords {
		problems = append(problems, fmt.Sprintf("%d words (limit %d)", words, ct.MaxWords))
	}
	if ct.MinWords > 0 && words < ct.MinWords {
		problems = append(problems, fmt.Sprintf("%d words (minimum %d)", words, ct.MinWords))
	}
	if len(problems) == 0 {
		return ""
	}
	return ct.Label + " is " + strings.Join(problems, ", ")
}
