package domain

import (
	"strings"
)

// Placeholder marks the substitution point in a URL template.
const Placeholder = "$"

const defaultScheme = "https://"

// Resolve turns a template into a navigable absolute URL.
//
// Every placeholder is replaced with the percent-encoded value (or removed
// when value is empty). A template without placeholder passes through
// unchanged. "https://" is prepended when the result has no http(s) scheme.
//
// Examples:
//   - Resolve("https://x.com/$", "a b") -> "https://x.com/a%20b"
//   - Resolve("x.com/$", "")            -> "https://x.com/"
//   - Resolve("http://x.com", "zzz")    -> "http://x.com"
func Resolve(template, value string) string {
	sub := ""
	if value != "" {
		sub = EncodeComponent(value)
	}

	out := strings.ReplaceAll(template, Placeholder, sub)
	if !hasHTTPScheme(out) {
		out = defaultScheme + out
	}
	return out
}

// ResolveCustom resolves with a user typed value. Surrounding blanks are
// trimmed; ok is false when nothing is left to substitute.
func ResolveCustom(template, value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return Resolve(template, value), true
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

const upperHex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s the way browsers encode a URI
// component: only A-Z a-z 0-9 and - _ . ! ~ * ' ( ) are kept verbatim.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
