package request

import (
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("hello", 0, DefaultMinScore, nil, nil, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "hello" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.MinScore() != DefaultMinScore {
		t.Errorf("MinScore() = %f", r.MinScore())
	}
	if r.IncludeContent() || r.IncludeHighlights() {
		t.Error("flags should default to false")
	}
	if r.Filters() != nil || r.Fields() != nil {
		t.Error("filters and fields should be empty")
	}
}

func TestNew_LimitClamped(t *testing.T) {
	r, err := New("q", MaxLimit+50, 0, nil, nil, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		limit    int
		minScore float64
		filters  map[string]string
	}{
		{"empty query", "", 10, 0, nil},
		{"blank query", "   ", 10, 0, nil},
		{"long query", strings.Repeat("q", MaxQueryLength+1), 10, 0, nil},
		{"negative limit", "q", -1, 0, nil},
		{"min score below zero", "q", 10, -0.1, nil},
		{"min score above one", "q", 10, 1.1, nil},
		{"empty filter key", "q", 10, 0, map[string]string{"": "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.query, tc.limit, tc.minScore, tc.filters, nil, false, false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMatches(t *testing.T) {
	r, _ := New("q", 10, 0, map[string]string{"topic": "Search"}, nil, false, false)

	if !r.Matches(map[string]string{"topic": "search", "extra": "x"}) {
		t.Error("case-insensitive value should match")
	}
	if r.Matches(map[string]string{"topic": "ranking"}) {
		t.Error("different value should not match")
	}
	if r.Matches(map[string]string{"other": "search"}) {
		t.Error("missing key should not match")
	}

	noFilter, _ := New("q", 10, 0, nil, nil, false, false)
	if !noFilter.Matches(nil) {
		t.Error("empty filter should match everything")
	}
}

func TestProject(t *testing.T) {
	meta := map[string]string{"topic": "search", "lang": "en"}

	all, _ := New("q", 10, 0, nil, nil, false, false)
	if got := all.Project(meta); len(got) != 2 {
		t.Errorf("Project() without fields = %v, want full metadata", got)
	}

	some, _ := New("q", 10, 0, nil, []string{"topic", "missing", ""}, false, false)
	got := some.Project(meta)
	if len(got) != 1 || got["topic"] != "search" {
		t.Errorf("Project() = %v, want only topic", got)
	}
}
