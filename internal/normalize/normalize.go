// Package normalize canonicalizes text before it is split into words.
//
// Training and encoding must run text through the same function, otherwise
// the learned symbol alphabet drifts from what the encoder produces.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text applies NFKC normalization, collapses every run of whitespace into a
// single ASCII space and trims the ends.
func Text(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if isSpace(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isSpace matches what Python's str.isspace accepts, which adds the
// information separators U+001C..U+001F to unicode.IsSpace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || ('\x1c' <= r && r <= '\x1f')
}

// Words returns the non-empty space separated words of the normalized text.
func Words(s string) []string {
	s = Text(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, " ")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
