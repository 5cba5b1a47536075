package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash computes a SHA-256 hex hash of a string for deduplication.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens a string to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// NormalizeQuery strips newlines and surrounding whitespace from a lookup key.
func NormalizeQuery(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", ""))
}

var escapes = map[rune]string{
	'\x00': `\0`,
	'\a':   `\a`,
	'\b':   `\b`,
	'\t':   `\t`,
	'\n':   `\n`,
	'\v':   `\v`,
	'\f':   `\f`,
	'\r':   `\r`,
	'\'':   `\'`,
	'"':    `\"`,
	'\\':   `\\`,
}

var unescapes = map[byte]byte{
	'0':  '\x00',
	'a':  '\a',
	'b':  '\b',
	't':  '\t',
	'n':  '\n',
	'v':  '\v',
	'f':  '\f',
	'r':  '\r',
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
}

// Escape encodes control characters, quotes and backslashes so the result
// fits on a single line of a translation table.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for _, r := range s {
		if e, ok := escapes[r]; ok {
			b.WriteString(e)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unescape reverses Escape. Unknown sequences keep their backslash and a
// trailing lone backslash is copied as is.
func Unescape(s string) string {
	i := strings.IndexByte(s, '\\')
	if i < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i >= 0 {
		b.WriteString(s[:i])
		if i == len(s)-1 {
			b.WriteByte('\\')
			return b.String()
		}
		c := s[i+1]
		if u, ok := unescapes[c]; ok {
			b.WriteByte(u)
		} else {
			b.WriteByte('\\')
			b.WriteByte(c)
		}
		s = s[i+2:]
		i = strings.IndexByte(s, '\\')
	}
	b.WriteString(s)
	return b.String()
}
