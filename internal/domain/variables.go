package domain

import "strings"

// NormalizeVariables trims values, drops blanks and duplicates,
// and keeps the first occurrence order.
func NormalizeVariables(vs []string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out, _ = addVariable(out, v)
	}
	return out
}

// addVariable appends v (trimmed) unless it is blank or already present.
func addVariable(vs []string, v string) ([]string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return vs, false
	}
	for _, existing := range vs {
		if existing == v {
			return vs, false
		}
	}
	return append(vs, v), true
}
