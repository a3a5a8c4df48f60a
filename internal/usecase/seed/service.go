package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	docuc "github.com/kailas-cloud/semsearch/internal/usecase/document"
)

// Creator creates and indexes documents.
type Creator interface {
	Create(ctx context.Context, in docuc.Input) (domdoc.Document, error)
}

// DemoCorpus is the demo document set used for smoke tests and evaluation.
var DemoCorpus = []docuc.Input{
	{
		Title:    "Vector Search Basics",
		Content:  "Vector search finds similar documents by comparing embeddings.",
		Metadata: map[string]string{"topic": "search"},
	},
	{
		Title:    "Ranking Signals",
		Content:  "Ranking blends relevance signals like semantic similarity and metadata boosts.",
		Metadata: map[string]string{"topic": "ranking"},
	},
	{
		Title:    "Latency Budgets",
		Content:  "Latency budgets keep search responses under target p95 milliseconds.",
		Metadata: map[string]string{"topic": "performance"},
	},
}

// Report summarizes a seeding run.
type Report struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Service seeds the demo corpus. Seeding is idempotent by content hash.
type Service struct {
	docs   Creator
	logger *zap.Logger
}

// New creates a seed service.
func New(docs Creator, logger *zap.Logger) *Service {
	return &Service{docs: docs, logger: logger}
}

// SeedDemo stores every demo document not already present.
func (s *Service) SeedDemo(ctx context.Context) (Report, error) {
	return s.Seed(ctx, DemoCorpus)
}

// Seed stores the given documents, skipping content that already exists.
func (s *Service) Seed(ctx context.Context, inputs []docuc.Input) (Report, error) {
	var rep Report
	for _, in := range inputs {
		doc, err := s.docs.Create(ctx, in)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				s.logger.Info("Seed document already present", zap.String("title", in.Title))
				rep.Skipped++
				continue
			}
			return rep, fmt.Errorf("seed %q: %w", in.Title, err)
		}
		s.logger.Info("Seeded document", zap.String("title", doc.Title()), zap.String("id", doc.ID()))
		rep.Created++
	}
	return rep, nil
}
