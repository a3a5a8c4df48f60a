package result

// Result is a single ranked search hit.
type Result struct {
	id         string
	title      string
	content    string
	metadata   map[string]string
	score      float64
	highlights []string
}

// New creates a ranked result. Content and highlights are empty unless requested.
func New(
	id, title, content string, metadata map[string]string,
	score float64, highlights []string,
) Result {
	return Result{
		id: id, title: title, content: content,
		metadata: metadata, score: score, highlights: highlights,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Title returns the document title.
func (r *Result) Title() string { return r.title }

// Content returns the document content (empty when not requested).
func (r *Result) Content() string { return r.content }

// Metadata returns the projected metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }

// Score returns the final blended score in [0,1].
func (r *Result) Score() float64 { return r.score }

// Highlights returns up to three snippet strings.
func (r *Result) Highlights() []string { return r.highlights }
