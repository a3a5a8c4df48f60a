package eval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
)

// DefaultK is the cutoff used by the curated evaluation.
const DefaultK = 5

// Query is one evaluation query with its gold document ids.
type Query struct {
	Text        string   `json:"query"`
	RelevantIDs []string `json:"relevant_ids"`
}

// QueryReport holds the per-query metrics.
type QueryReport struct {
	Query          string  `json:"query"`
	ReciprocalRank float64 `json:"rr"`
	NDCG           float64 `json:"ndcg"`
	Recall         float64 `json:"recall"`
}

// Report aggregates metrics as arithmetic means over all queries.
type Report struct {
	TotalQueries int           `json:"total_queries"`
	K            int           `json:"k"`
	MRR          float64       `json:"mrr"`
	NDCG         float64       `json:"ndcg"`
	RecallAtK    float64       `json:"recall_at_k"`
	Details      []QueryReport `json:"details"`
}

// curatedQueries map demo queries to the seeded document titles they target.
var curatedQueries = []struct {
	text  string
	title string
}{
	{"vector search embeddings", "Vector Search Basics"},
	{"ranking signals metadata boosts", "Ranking Signals"},
	{"latency budget p95", "Latency Budgets"},
	{"recency decay freshness", "Latency Budgets"},
}

// Service evaluates ranking quality against gold relevance sets.
type Service struct {
	search Searcher
	titles TitleFinder
	logger *zap.Logger
}

// New creates an evaluation service.
func New(search Searcher, titles TitleFinder, logger *zap.Logger) *Service {
	return &Service{search: search, titles: titles, logger: logger}
}

// Run searches each query with limit k and min score 0 and scores the hits.
// k is capped at request.MaxLimit so metrics use the cutoff actually retrieved.
// An empty query set yields an all-zero report.
func (s *Service) Run(ctx context.Context, queries []Query, k int) (Report, error) {
	if k <= 0 {
		k = DefaultK
	}
	k = min(k, request.MaxLimit)
	report := Report{K: k, Details: []QueryReport{}}
	if len(queries) == 0 {
		return report, nil
	}

	var rrSum, ndcgSum, recallSum float64
	for _, q := range queries {
		req, err := request.New(q.Text, k, 0, nil, nil, false, false)
		if err != nil {
			return Report{}, fmt.Errorf("%w: eval query %q: %w", domain.ErrInvalidRequest, q.Text, err)
		}

		results, err := s.search.Search(ctx, &req)
		if err != nil {
			return Report{}, fmt.Errorf("eval query %q: %w", q.Text, err)
		}

		hits := make([]string, len(results))
		for i := range results {
			hits[i] = results[i].ID()
		}
		gold := goldSet(q.RelevantIDs)

		qr := QueryReport{
			Query:          q.Text,
			ReciprocalRank: ReciprocalRank(hits, gold),
			NDCG:           NDCG(hits, gold, k),
			Recall:         Recall(hits, gold, k),
		}
		rrSum += qr.ReciprocalRank
		ndcgSum += qr.NDCG
		recallSum += qr.Recall
		report.Details = append(report.Details, qr)
	}

	n := float64(len(queries))
	report.TotalQueries = len(queries)
	report.MRR = rrSum / n
	report.NDCG = ndcgSum / n
	report.RecallAtK = recallSum / n

	s.logger.Info("Evaluation completed",
		zap.Int("queries", report.TotalQueries),
		zap.Int("k", k),
		zap.Float64("mrr", report.MRR),
		zap.Float64("ndcg", report.NDCG),
		zap.Float64("recall_at_k", report.RecallAtK),
	)
	return report, nil
}

// RunCurated evaluates the built-in demo queries against seeded documents.
// Gold sets of titles that are not present stay empty.
func (s *Service) RunCurated(ctx context.Context, k int) (Report, error) {
	queries := make([]Query, 0, len(curatedQueries))
	for _, cq := range curatedQueries {
		ids, err := s.lookup(ctx, cq.title)
		if err != nil {
			return Report{}, err
		}
		queries = append(queries, Query{Text: cq.text, RelevantIDs: ids})
	}
	return s.Run(ctx, queries, k)
}

func (s *Service) lookup(ctx context.Context, title string) ([]string, error) {
	doc, err := s.titles.FindByTitle(ctx, title)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %q: %w", domain.ErrDocumentStoreError, title, err)
	}
	return []string{doc.ID()}, nil
}
