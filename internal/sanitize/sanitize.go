// Package sanitize cleans client-supplied rich text against a fixed HTML
// allow-list before it is persisted.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// dataImagePattern accepts inline images only; remote image references are
// stripped.
var dataImagePattern = regexp.MustCompile(`^data:image/`)

// Sanitizer applies the report-text HTML policy: paragraph and inline
// formatting tags, links restricted to http/https/mailto with rel="nofollow"
// forced, inline data-URI images, everything else (scripts included)
// removed.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New creates a Sanitizer with the report-text policy.
func New() *Sanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "b", "i", "u", "em", "strong", "ul", "ol", "li", "blockquote")

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireNoFollowOnLinks(true)

	p.AllowAttrs("src").Matching(dataImagePattern).OnElements("img")
	p.AllowAttrs("title", "align", "alt", "border", "name", "height", "width", "hspace", "vspace").OnElements("img")

	return &Sanitizer{policy: p}
}

// Sanitize returns the input with everything outside the allow-list removed.
func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
