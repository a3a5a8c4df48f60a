package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/semsearch/internal/db"
	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/candidate"
)

const (
	fieldID      = "id"
	fieldTitle   = "title"
	fieldContent = "content"
	fieldHash    = "content_hash"
	fieldVector  = "vector"

	defaultHNSWM           = 16
	defaultHNSWEFConstruct = 200
)

// store is the consumer interface for vector search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HDel(ctx context.Context, key string, fields ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo is the Redis-backed vector candidate source and vector index.
// Vectors live in the document hash, so the vector id equals the document id.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
	vectorCfg domain.VectorConfig
	hnsw      HNSWConfig
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// New creates a vector repository over documents stored under prefix+"doc:".
func New(s store, prefix string, vectorCfg domain.VectorConfig) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: prefix + "doc:",
		indexName: prefix + "idx:documents",
		vectorCfg: vectorCfg,
		hnsw:      HNSWConfig{M: defaultHNSWM, EFConstruct: defaultHNSWEFConstruct},
	}
}

// WithHNSW overrides the HNSW graph parameters. Zero fields keep the defaults.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// IndexName returns the FT index name.
func (r *Repo) IndexName() string {
	return r.indexName
}

// EnsureIndex creates the FT index over document hashes unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := r.indexDefinition()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return nil
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Another instance created it between the check and FT.CREATE.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.indexName).
		Prefix(r.keyPrefix).
		Text(fieldTitle).
		Text(fieldContent).
		Tag(fieldHash)

	distance := distanceMetric(r.vectorCfg.DistanceMetric)
	if strings.EqualFold(r.vectorCfg.Algorithm, "flat") {
		b = b.VectorFlat(fieldVector, r.vectorCfg.Dimensions, distance, 0)
	} else {
		b = b.VectorHNSW(fieldVector, r.vectorCfg.Dimensions, distance, r.hnsw.M, r.hnsw.EFConstruct)
	}

	return b.Build()
}

func distanceMetric(name string) db.DistanceMetric {
	switch strings.ToLower(name) {
	case "l2":
		return db.DistanceL2
	case "ip", "dot":
		return db.DistanceIP
	default:
		return db.DistanceCosine
	}
}

// FindSimilar runs a KNN query and returns candidates in similarity order,
// dropping those below minScore.
func (r *Repo) FindSimilar(
	ctx context.Context, vector []float32, limit int, minScore float64,
) ([]candidate.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  fieldVector,
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{fieldID},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}
	if sr == nil {
		return nil, nil
	}

	out := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if e.Score < minScore {
			continue
		}
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, r.keyPrefix)
		}
		out = append(out, candidate.New(id, e.Score))
	}
	return out, nil
}

// Upsert writes the document vector and returns its vector id.
func (r *Repo) Upsert(ctx context.Context, docID string, vector []float32) (string, error) {
	if len(vector) != r.vectorCfg.Dimensions {
		return "", fmt.Errorf("%w: got %d, want %d",
			domain.ErrVectorDimMismatch, len(vector), r.vectorCfg.Dimensions)
	}

	fields := map[string]string{fieldVector: string(db.VectorToBytes(vector))}
	if err := r.store.HSet(ctx, r.keyPrefix+docID, fields); err != nil {
		return "", fmt.Errorf("upsert vector %s: %w", docID, err)
	}
	return docID, nil
}

// Delete removes the vector from the document hash.
func (r *Repo) Delete(ctx context.Context, vectorID string) error {
	if err := r.store.HDel(ctx, r.keyPrefix+vectorID, fieldVector); err != nil {
		return fmt.Errorf("delete vector %s: %w", vectorID, err)
	}
	return nil
}
