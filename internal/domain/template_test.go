package domain

import (
	"encoding/json"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		template string
		value    string
		expected string
	}{
		{
			name:     "encodes value with space",
			template: "https://x.com/$",
			value:    "a b",
			expected: "https://x.com/a%20b",
		},
		{
			name:     "empty value empties placeholder and adds scheme",
			template: "x.com/$",
			value:    "",
			expected: "https://x.com/",
		},
		{
			name:     "no placeholder passes through",
			template: "http://x.com",
			value:    "ignored",
			expected: "http://x.com",
		},
		{
			name:     "every occurrence substituted",
			template: "https://x.com/$/issues?q=$",
			value:    "42",
			expected: "https://x.com/42/issues?q=42",
		},
		{
			name:     "scheme check is case insensitive",
			template: "HTTPS://X.com/$",
			value:    "a",
			expected: "HTTPS://X.com/a",
		},
		{
			name:     "reserved characters are escaped",
			template: "https://x.com/search?q=$",
			value:    "a&b=c/d?",
			expected: "https://x.com/search?q=a%26b%3Dc%2Fd%3F",
		},
		{
			name:     "component safe characters are kept",
			template: "https://x.com/$",
			value:    "a-b_c.d!e~f*g'h(i)",
			expected: "https://x.com/a-b_c.d!e~f*g'h(i)",
		},
		{
			name:     "utf8 is percent encoded per byte",
			template: "https://x.com/$",
			value:    "é",
			expected: "https://x.com/%C3%A9",
		},
		{
			name:     "plus sign is escaped",
			template: "https://x.com/$",
			value:    "c++",
			expected: "https://x.com/c%2B%2B",
		},
		{
			name:     "ftp gets https prepended",
			template: "ftp://x.com",
			value:    "",
			expected: "https://ftp://x.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.template, tt.value)
			if got != tt.expected {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.template, tt.value, got, tt.expected)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	first := Resolve("jira.example.com/browse/$", "OPS 1")
	for i := 0; i < 10; i++ {
		if got := Resolve("jira.example.com/browse/$", "OPS 1"); got != first {
			t.Fatalf("Resolve() = %q on run %d, want %q", got, i, first)
		}
	}
}

func TestResolveCustom(t *testing.T) {
	if _, ok := ResolveCustom("x.com/$", "   "); ok {
		t.Error("ResolveCustom() with blank value should not resolve")
	}

	got, ok := ResolveCustom("x.com/$", "  bug  ")
	if !ok {
		t.Fatal("ResolveCustom() should resolve a non-blank value")
	}
	if got != "https://x.com/bug" {
		t.Errorf("ResolveCustom() = %q, want %q", got, "https://x.com/bug")
	}
}

func TestNeedsVariable(t *testing.T) {
	if !(Link{URL: "x.com/$"}).NeedsVariable() {
		t.Error("NeedsVariable() = false for template with placeholder")
	}
	if (Link{URL: "x.com"}).NeedsVariable() {
		t.Error("NeedsVariable() = true for template without placeholder")
	}
}

func TestLinkJSONCarriesNeedsVariable(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "template", url: "x.com/$", want: true},
		{name: "plain", url: "x.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(Link{ID: "a", Name: "n", URL: tt.url, Variables: []string{"v"}, Order: 3})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got["needsVariable"] != tt.want {
				t.Errorf("needsVariable = %v, want %v", got["needsVariable"], tt.want)
			}
			if got["id"] != "a" || got["url"] != tt.url || got["order"] != float64(3) {
				t.Errorf("link fields = %v", got)
			}
		})
	}
}
