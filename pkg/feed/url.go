package feed

import (
	"regexp"
	"strings"
)

var dimensionInfix = regexp.MustCompile(`/s\d{3,}x\d{3,}/`)

// CanonicalURL strips the query string and any /s<W>x<H>/ size segment
// from a media URL, which yields the highest resolution rendition.
func CanonicalURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	return dimensionInfix.ReplaceAllString(raw, "/")
}

