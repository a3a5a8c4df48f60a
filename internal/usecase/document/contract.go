package document

import (
	"context"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Save(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
	FindByContentHash(ctx context.Context, hash string) (domdoc.Document, error)
	List(ctx context.Context) ([]domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// VectorIndex stores document vectors for similarity search.
type VectorIndex interface {
	Upsert(ctx context.Context, docID string, vector []float32) (vectorID string, err error)
	Delete(ctx context.Context, vectorID string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
