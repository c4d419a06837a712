package domain

import "strings"

// Matches reports whether query is a case-insensitive substring of the
// link name, its url or any preset value. An empty query matches.
func Matches(l Link, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(l.Name), q) ||
		strings.Contains(strings.ToLower(l.URL), q) {
		return true
	}
	for _, v := range l.Variables {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// Filter keeps the links matching query, preserving their order.
func Filter(links []Link, query string) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if Matches(l, query) {
			out = append(out, l)
		}
	}
	return out
}
