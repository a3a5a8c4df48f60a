// Package hashemb provides a deterministic offline embedder derived from a SHA-256 digest.
package hashemb

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// MinDimensions is the smallest vector the embedder produces.
const MinDimensions = 4

// Embedder maps text to a unit vector. Identical text always yields the same vector.
type Embedder struct {
	dimensions int
}

// New creates a stub embedder; dimensions below MinDimensions are raised to it.
func New(dimensions int) *Embedder {
	return &Embedder{dimensions: max(MinDimensions, dimensions)}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Digest bytes are cycled over the vector,
// mapped to [-1,1] and L2-normalized. No tokens are consumed.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float64, e.dimensions)
	var norm float64
	for i := range vec {
		v := float64(sum[i%len(sum)])/255.0*2.0 - 1.0
		vec[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, e.dimensions)
	for i, v := range vec {
		if norm > 0 {
			v /= norm
		}
		out[i] = float32(v)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("stub", "sha256", "success").Inc()
	return domain.EmbeddingResult{Embedding: out}, nil
}
