package search

import (
	"context"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

// CandidateSource returns approximate nearest neighbours for a query vector.
// Order of the returned slice is the canonical ranking order; candidates
// scoring below minScore are dropped at the source.
type CandidateSource interface {
	FindSimilar(
		ctx context.Context, vector []float32, limit int, minScore float64,
	) ([]candidate.Candidate, error)
}

// DocumentStore loads full documents. Missing ids are simply absent from the map.
type DocumentStore interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// ResultCache memoizes ranked results keyed by the query.
type ResultCache interface {
	Get(ctx context.Context, req *request.Request) ([]result.Result, bool)
	Set(ctx context.Context, req *request.Request, results []result.Result)
}
