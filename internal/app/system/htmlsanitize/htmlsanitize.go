// Package htmlsanitize cleans user-authored rich text (post bodies,
// comments, community descriptions, bios) before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "mark", "sub", "sup")
		p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "code", "pre", "span")
		p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, iframes and unsafe URLs while
// keeping ordinary formatting markup. Surrounding whitespace is trimmed.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc().Sanitize(s))
}
