package request

import (
	"fmt"
	"strings"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength  = 4096
	DefaultLimit    = 10
	MaxLimit        = 100
	DefaultMinScore = 0.7
)

// Request is a validated search query.
type Request struct {
	query             string
	limit             int
	minScore          float64
	filters           map[string]string
	fields            []string
	includeContent    bool
	includeHighlights bool
}

// New validates and normalizes search parameters.
// Defaults: limit=10. minScore must already be resolved by the caller
// (transport applies DefaultMinScore when the field is omitted).
func New(
	query string,
	limit int,
	minScore float64,
	filters map[string]string,
	fields []string,
	includeContent, includeHighlights bool,
) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if limit < 0 {
		return Request{}, fmt.Errorf("limit must be positive")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1")
	}

	var f map[string]string
	if len(filters) > 0 {
		f = make(map[string]string, len(filters))
		for k, v := range filters {
			if k == "" {
				return Request{}, fmt.Errorf("filter key must not be empty")
			}
			f[k] = v
		}
	}

	var fl []string
	for _, name := range fields {
		if name != "" {
			fl = append(fl, name)
		}
	}

	return Request{
		query:             query,
		limit:             limit,
		minScore:          minScore,
		filters:           f,
		fields:            fl,
		includeContent:    includeContent,
		includeHighlights: includeHighlights,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// MinScore returns the minimum similarity threshold applied by the vector source.
func (r *Request) MinScore() float64 { return r.minScore }

// Filters returns the metadata filter (all keys must match, case-insensitive values).
func (r *Request) Filters() map[string]string { return r.filters }

// Fields returns the metadata projection list. Empty means all metadata.
func (r *Request) Fields() []string { return r.fields }

// IncludeContent reports whether full content should be returned.
func (r *Request) IncludeContent() bool { return r.includeContent }

// IncludeHighlights reports whether highlight snippets should be computed.
func (r *Request) IncludeHighlights() bool { return r.includeHighlights }

// Matches reports whether metadata satisfies every filter entry.
// Values compare case-insensitively; a missing key never matches.
func (r *Request) Matches(metadata map[string]string) bool {
	for k, want := range r.filters {
		got, ok := metadata[k]
		if !ok || !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}

// Project returns metadata restricted to the requested fields.
func (r *Request) Project(metadata map[string]string) map[string]string {
	if len(r.fields) == 0 {
		return metadata
	}
	out := make(map[string]string, len(r.fields))
	for _, name := range r.fields {
		if v, ok := metadata[name]; ok {
			out[name] = v
		}
	}
	return out
}
