package document

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// Input carries the client-supplied document fields.
type Input struct {
	Title    string
	Content  string
	Metadata map[string]string
}

// Service handles document CRUD with automatic vectorization.
type Service struct {
	repo            Repository
	index           VectorIndex
	embedder        Embedder
	logger          *zap.Logger
	now             func() time.Time
	newID           func() string
	defaultPageSize int
	maxPageSize     int
}

// New creates a document service.
func New(repo Repository, index VectorIndex, embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:            repo,
		index:           index,
		embedder:        embedder,
		logger:          logger,
		now:             time.Now,
		newID:           uuid.NewString,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// WithClock overrides the wall clock used for audit timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create stores a new document and indexes it. Content already stored under
// another document is rejected with ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, in Input) (domdoc.Document, error) {
	doc, err := domdoc.New(s.newID(), in.Title, in.Content, in.Metadata)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	if err := s.checkDuplicate(ctx, doc.ContentHash(), ""); err != nil {
		return domdoc.Document{}, err
	}

	now := s.now().UTC()
	doc = doc.WithTimestamps(now, now)
	if err := s.repo.Save(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: save document: %w", domain.ErrDocumentStoreError, err)
	}

	return s.indexDocument(ctx, doc)
}

// Get retrieves a document by ID.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns a page of documents, newest first, and the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]domdoc.Document, int, error) {
	if offset < 0 {
		return nil, 0, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt().After(docs[j].CreatedAt())
	})

	total := len(docs)
	if offset >= total {
		return []domdoc.Document{}, total, nil
	}
	end := min(offset+limit, total)
	return docs[offset:end], total, nil
}

// Update replaces title, content and metadata, then re-indexes the document.
func (s *Service) Update(ctx context.Context, id string, in Input) (domdoc.Document, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}

	doc, err := domdoc.New(id, in.Title, in.Content, in.Metadata)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	if doc.ContentHash() != existing.ContentHash() {
		if err := s.checkDuplicate(ctx, doc.ContentHash(), id); err != nil {
			return domdoc.Document{}, err
		}
	}

	doc = doc.WithTimestamps(existing.CreatedAt(), s.now().UTC())
	if err := s.repo.Save(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: save document: %w", domain.ErrDocumentStoreError, err)
	}

	if existing.Indexed() {
		if err := s.index.Delete(ctx, existing.VectorID()); err != nil {
			s.logger.Warn("Failed to delete stale vector",
				zap.String("document_id", id),
				zap.String("vector_id", existing.VectorID()),
				zap.Error(err),
			)
		}
	}

	return s.indexDocument(ctx, doc)
}

// Delete removes the document and its vector.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if doc.Indexed() {
		if err := s.index.Delete(ctx, doc.VectorID()); err != nil {
			s.logger.Warn("Failed to delete document vector",
				zap.String("document_id", id),
				zap.String("vector_id", doc.VectorID()),
				zap.Error(err),
			)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete document: %w", domain.ErrDocumentStoreError, err)
	}
	return nil
}

// Reindex embeds the document content again and refreshes its vector.
func (s *Service) Reindex(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return s.indexDocument(ctx, doc)
}

// indexDocument embeds the content, writes the vector and stores the vector id.
// An empty embedding leaves the document stored but unindexed.
func (s *Service) indexDocument(ctx context.Context, doc domdoc.Document) (domdoc.Document, error) {
	emb, err := s.embedder.Embed(ctx, doc.Content())
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: embed document %s: %w",
			domain.ErrEmbeddingProviderError, doc.ID(), err)
	}
	if emb.IsEmpty() {
		s.logger.Warn("Empty embedding, document left unindexed", zap.String("document_id", doc.ID()))
		unindexed := doc.WithVectorID("")
		if err := s.repo.Save(ctx, &unindexed); err != nil {
			return domdoc.Document{}, fmt.Errorf("%w: save document: %w", domain.ErrDocumentStoreError, err)
		}
		return unindexed, nil
	}

	vectorID, err := s.index.Upsert(ctx, doc.ID(), emb.Embedding)
	if err != nil {
		if errors.Is(err, domain.ErrVectorDimMismatch) {
			return domdoc.Document{}, fmt.Errorf("index document %s: %w", doc.ID(), err)
		}
		return domdoc.Document{}, fmt.Errorf("%w: index document %s: %w",
			domain.ErrVectorSourceError, doc.ID(), err)
	}

	indexed := doc.WithVectorID(vectorID)
	if err := s.repo.Save(ctx, &indexed); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: save vector id: %w", domain.ErrDocumentStoreError, err)
	}

	s.logger.Debug("Document indexed",
		zap.String("document_id", doc.ID()),
		zap.String("vector_id", vectorID),
	)
	return indexed, nil
}

// checkDuplicate returns ErrAlreadyExists when another document holds the same content.
func (s *Service) checkDuplicate(ctx context.Context, hash, selfID string) error {
	existing, err := s.repo.FindByContentHash(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil
		}
		return fmt.Errorf("%w: find by content hash: %w", domain.ErrDocumentStoreError, err)
	}
	if existing.ID() == selfID {
		return nil
	}
	return fmt.Errorf("%w: document %s has the same content", domain.ErrAlreadyExists, existing.ID())
}
