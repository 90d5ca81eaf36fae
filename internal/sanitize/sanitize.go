// Package sanitize cleans free text typed into bills before it leaves the service.
package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// plainEntities restores the characters the policy escapes that can never form markup.
// &lt; and &gt; stay escaped.
var plainEntities = strings.NewReplacer("&amp;", "&", "&#34;", `"`, "&#39;", "'")

// Text strips markup and non-printable characters and trims surrounding space.
// Entity-encoded markup is decoded before sanitizing so it is stripped as well.
// The result never contains '<' or '>'.
func Text(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' {
			return r
		}
		return -1
	}, html.UnescapeString(s))
	return strings.TrimSpace(plainEntities.Replace(strictPolicy.Sanitize(cleaned)))
}

// ForSpreadsheet prefixes a quote when s would otherwise be evaluated as a formula.
func ForSpreadsheet(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
