// ABOUTME: URL detection over message text for link-presence fields.
// ABOUTME: Pattern matching only; no URL validation beyond the scheme prefix.

package normalize

import "regexp"

// linkPattern matches http:// or https:// followed by non-whitespace.
// Case-insensitive, and deliberately permissive: trailing punctuation is
// kept and correctness past the scheme is not checked.
var linkPattern = regexp.MustCompile(`(?i)https?://\S+`)

// ExtractLinks returns every URL-shaped substring of text, in order.
func ExtractLinks(text string) []string {
	return linkPattern.FindAllString(text, -1)
}

// FirstLink returns the first URL-shaped substring, if any.
func FirstLink(text string) (string, bool) {
	loc := linkPattern.FindString(text)
	if loc == "" {
		return "", false
	}
	return loc, true
}
