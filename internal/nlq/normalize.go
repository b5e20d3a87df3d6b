package nlq

import "strings"

// Normalize canonicalizes raw question text: trim, lowercase, collapse
// whitespace runs to a single space, fold "ё" to "е" so keyword stems only
// need one spelling.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	lowered = strings.ReplaceAll(lowered, "ё", "е")
	return strings.Join(strings.Fields(lowered), " ")
}
