package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
	"github.com/kailas-cloud/semsearch/internal/domain/search/scoring"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// Service runs hybrid-ranked document search.
type Service struct {
	embed  Embedder
	source CandidateSource
	docs   DocumentStore
	ranker *Ranker
	cache  ResultCache
	logger *zap.Logger
}

// New creates a search service. cache may be nil.
func New(
	embed Embedder, source CandidateSource, docs DocumentStore,
	ranker *Ranker, cache ResultCache, logger *zap.Logger,
) *Service {
	return &Service{
		embed: embed, source: source, docs: docs,
		ranker: ranker, cache: cache, logger: logger,
	}
}

// Search embeds the query, fetches candidates and documents, then ranks them.
// An empty query embedding yields an empty result set.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, req); ok {
			metrics.SearchResultCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.SearchResultCacheTotal.WithLabelValues("miss").Inc()
	}

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrEmbeddingProviderError, err)
	}
	if emb.IsEmpty() {
		s.logger.Debug("Empty query embedding, skipping search")
		return []result.Result{}, nil
	}

	candidates, err := s.source.FindSimilar(ctx, emb.Embedding, req.Limit(), req.MinScore())
	if err != nil {
		return nil, fmt.Errorf("%w: find similar: %w", domain.ErrVectorSourceError, err)
	}
	if len(candidates) == 0 {
		s.logger.Debug("No candidates found")
		return []result.Result{}, nil
	}

	docs, err := s.docs.FindByIDs(ctx, candidate.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("%w: load documents: %w", domain.ErrDocumentStoreError, err)
	}

	start := time.Now()
	results := s.ranker.Rank(req, candidates, docs)
	metrics.RankingDuration.Observe(time.Since(start).Seconds())
	metrics.RankingDocuments.WithLabelValues("candidates").Observe(float64(len(candidates)))
	metrics.RankingDocuments.WithLabelValues("results").Observe(float64(len(results)))

	s.logger.Debug("Search completed",
		zap.Int("candidates", len(candidates)),
		zap.Int("documents", len(docs)),
		zap.Int("results", len(results)),
	)

	if s.cache != nil && len(results) > 0 {
		s.cache.Set(ctx, req, results)
	}
	return results, nil
}

// Similar returns documents near the given document, excluding the document
// itself. Results carry full content and the clamped vector score.
func (s *Service) Similar(
	ctx context.Context, id string, limit int, minScore float64,
) ([]result.Result, error) {
	if limit <= 0 {
		limit = request.DefaultLimit
	}
	if limit > request.MaxLimit {
		limit = request.MaxLimit
	}
	if minScore < 0 || minScore > 1 {
		return nil, fmt.Errorf("%w: min_score must be between 0 and 1", domain.ErrInvalidRequest)
	}

	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	emb, err := s.embed.Embed(ctx, doc.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize document: %w", domain.ErrEmbeddingProviderError, err)
	}
	if emb.IsEmpty() {
		s.logger.Warn("Empty document embedding", zap.String("document_id", id))
		return []result.Result{}, nil
	}

	found, err := s.source.FindSimilar(ctx, emb.Embedding, limit+1, minScore)
	if err != nil {
		return nil, fmt.Errorf("%w: find similar: %w", domain.ErrVectorSourceError, err)
	}

	candidates := make([]candidate.Candidate, 0, len(found))
	for _, c := range found {
		if c.ID() == id {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) == limit {
			break
		}
	}
	if len(candidates) == 0 {
		return []result.Result{}, nil
	}

	docs, err := s.docs.FindByIDs(ctx, candidate.IDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("%w: load documents: %w", domain.ErrDocumentStoreError, err)
	}

	results := make([]result.Result, 0, len(candidates))
	for _, c := range candidates {
		d, ok := docs[c.ID()]
		if !ok {
			continue
		}
		results = append(results, result.New(
			d.ID(), d.Title(), d.Content(), d.Metadata(), scoring.Clamp(c.Score()), nil,
		))
	}
	return results, nil
}
