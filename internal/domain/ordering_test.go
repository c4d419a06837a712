package domain

import (
	"encoding/json"
	"testing"
)

// snapshotOf builds the records a store would hold for links.
func snapshotOf(links []Link) Snapshot {
	s := make(Snapshot, len(links))
	for _, l := range links {
		vars, _ := json.Marshal(l.Variables)
		s[l.ID] = Record{
			FieldName:      l.Name,
			FieldURL:       l.URL,
			FieldVariables: string(vars),
			FieldCreatedAt: l.CreatedAt,
			FieldOrder:     l.Order,
		}
	}
	return s
}

func mustSort(t *testing.T, s Snapshot) []Link {
	t.Helper()
	links, err := ListAndSort(s)
	if err != nil {
		t.Fatalf("ListAndSort() error = %v", err)
	}
	return links
}

func ids(links []Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.ID
	}
	return out
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListAndSort(t *testing.T) {
	snapshot := Snapshot{
		"c": {FieldName: "C", FieldURL: "c.com", FieldOrder: int64(2), FieldCreatedAt: int64(100)},
		"a": {FieldName: "A", FieldURL: "a.com", FieldOrder: int64(1), FieldCreatedAt: int64(100)},
		"b": {FieldName: "B", FieldURL: "b.com", FieldOrder: int64(1), FieldCreatedAt: int64(200)},
		"z": {FieldName: "Z", FieldURL: "z.com"},
	}

	got := ids(mustSort(t, snapshot))
	want := []string{"z", "b", "a", "c"}
	if !slicesEqual(got, want) {
		t.Errorf("ListAndSort() = %v, want %v", got, want)
	}
}

func TestListAndSortWeaklyTypedRecords(t *testing.T) {
	snapshot := Snapshot{
		"x": {
			FieldName:      "Jira",
			FieldURL:       "jira.com/$",
			FieldVariables: `["bug","task"]`,
			FieldOrder:     "3",
			FieldCreatedAt: "1700000000000",
		},
	}

	links := mustSort(t, snapshot)
	if len(links) != 1 {
		t.Fatalf("ListAndSort() returned %d links, want 1", len(links))
	}
	l := links[0]
	if l.ID != "x" || l.Order != 3 || l.CreatedAt != 1700000000000 {
		t.Errorf("decoded link = %+v", l)
	}
	if !slicesEqual(l.Variables, []string{"bug", "task"}) {
		t.Errorf("Variables = %v, want [bug task]", l.Variables)
	}
}

func TestListAndSortKeepsMalformed(t *testing.T) {
	snapshot := Snapshot{
		"ok":   {FieldName: "ok", FieldURL: "ok.com", FieldOrder: int64(1)},
		"bad":  {FieldName: "bad", FieldURL: "bad.com/$", FieldVariables: "not json", FieldOrder: int64(2)},
		"frac": {FieldName: "frac", FieldURL: "frac.com", FieldOrder: "1.5", FieldCreatedAt: int64(42)},
	}

	links, err := ListAndSort(snapshot)
	if err == nil {
		t.Error("ListAndSort() error = nil, want decode error")
	}
	if got := ids(links); !slicesEqual(got, []string{"frac", "ok", "bad"}) {
		t.Fatalf("ListAndSort() = %v, want [frac ok bad]", got)
	}

	frac, ok, bad := links[0], links[1], links[2]
	if ok.Name != "ok" || ok.Order != 1 {
		t.Errorf("clean link = %+v", ok)
	}
	if bad.Name != "bad" || bad.URL != "bad.com/$" || bad.Order != 2 || len(bad.Variables) != 0 {
		t.Errorf("link with bad variables = %+v", bad)
	}
	if frac.Name != "frac" || frac.Order != 0 || frac.CreatedAt != 42 {
		t.Errorf("link with bad order = %+v", frac)
	}
}

func TestDecodeLinkCleanRecordHasNoError(t *testing.T) {
	l, err := DecodeLink("a", Record{FieldName: "A", FieldURL: "a.com", FieldVariables: `["x"]`})
	if err != nil {
		t.Fatalf("DecodeLink() error = %v", err)
	}
	if l.ID != "a" || !slicesEqual(l.Variables, []string{"x"}) {
		t.Errorf("DecodeLink() = %+v", l)
	}
}

func TestListAndSortIdempotent(t *testing.T) {
	snapshot := Snapshot{
		"1": {FieldName: "1", FieldURL: "1", FieldOrder: int64(5), FieldCreatedAt: int64(1)},
		"2": {FieldName: "2", FieldURL: "2", FieldOrder: int64(5), FieldCreatedAt: int64(1)},
		"3": {FieldName: "3", FieldURL: "3", FieldOrder: int64(0), FieldCreatedAt: int64(9)},
		"4": {FieldName: "4", FieldURL: "4", FieldOrder: int64(5), FieldCreatedAt: int64(7)},
		"5": {FieldName: "5", FieldURL: "5", FieldOrder: int64(-1), FieldCreatedAt: int64(3)},
	}

	first := mustSort(t, snapshot)
	second := mustSort(t, snapshotOf(first))

	if !slicesEqual(ids(first), ids(second)) {
		t.Errorf("ListAndSort() not idempotent: %v then %v", ids(first), ids(second))
	}

	for i := 1; i < len(first); i++ {
		a, b := first[i-1], first[i]
		if a.Order > b.Order || (a.Order == b.Order && a.CreatedAt < b.CreatedAt) {
			t.Errorf("pair (%s, %s) out of order: %+v %+v", a.ID, b.ID, a, b)
		}
	}
}

func TestNextOrder(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		expected int64
	}{
		{
			name:     "empty collection",
			snapshot: Snapshot{},
			expected: 1,
		},
		{
			name: "max order five",
			snapshot: Snapshot{
				"a": {FieldOrder: int64(5)},
				"b": {FieldOrder: int64(2)},
			},
			expected: 6,
		},
		{
			name: "missing order counts as zero",
			snapshot: Snapshot{
				"a": {FieldName: "a"},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextOrder(tt.snapshot); got != tt.expected {
				t.Errorf("NextOrder() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMove(t *testing.T) {
	links := []Link{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}

	tests := []struct {
		name     string
		dragged  string
		target   string
		expected []string
		ok       bool
	}{
		{name: "forward", dragged: "A", target: "C", expected: []string{"B", "C", "A", "D"}, ok: true},
		{name: "backward", dragged: "D", target: "B", expected: []string{"A", "D", "B", "C"}, ok: true},
		{name: "to end", dragged: "B", target: "D", expected: []string{"A", "C", "D", "B"}, ok: true},
		{name: "same item", dragged: "B", target: "B", expected: []string{"A", "B", "C", "D"}, ok: false},
		{name: "dragged missing", dragged: "X", target: "B", expected: []string{"A", "B", "C", "D"}, ok: false},
		{name: "target missing", dragged: "A", target: "X", expected: []string{"A", "B", "C", "D"}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Move(links, tt.dragged, tt.target)
			if ok != tt.ok {
				t.Errorf("Move() ok = %v, want %v", ok, tt.ok)
			}
			if !slicesEqual(ids(got), tt.expected) {
				t.Errorf("Move() = %v, want %v", ids(got), tt.expected)
			}
		})
	}

	if !slicesEqual(ids(links), []string{"A", "B", "C", "D"}) {
		t.Errorf("Move() mutated its input: %v", ids(links))
	}
}
