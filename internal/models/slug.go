package models

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives a URL-safe slug: lower-cased, non-alphanumerics stripped,
// runs of whitespace and hyphens collapsed to a single hyphen.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "task"
	}
	return s
}
