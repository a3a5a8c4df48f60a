package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/semsearch/internal/logger"
	documentuc "github.com/kailas-cloud/semsearch/internal/usecase/document"
	evaluc "github.com/kailas-cloud/semsearch/internal/usecase/eval"
	healthuc "github.com/kailas-cloud/semsearch/internal/usecase/health"
	seeduc "github.com/kailas-cloud/semsearch/internal/usecase/seed"
)

// DocumentService manages the document corpus.
type DocumentService interface {
	Create(ctx context.Context, in documentuc.Input) (domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context, offset, limit int) ([]domdoc.Document, int, error)
	Update(ctx context.Context, id string, in documentuc.Input) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// SearchService runs ranked and similarity search.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
	Similar(ctx context.Context, id string, limit int, minScore float64) ([]result.Result, error)
}

// Seeder loads the demo corpus.
type Seeder interface {
	SeedDemo(ctx context.Context) (seeduc.Report, error)
}

// Evaluator computes ranking quality metrics.
type Evaluator interface {
	Run(ctx context.Context, queries []evaluc.Query, k int) (evaluc.Report, error)
	RunCurated(ctx context.Context, k int) (evaluc.Report, error)
}

// IndexBuilder creates the vector index when it is missing.
type IndexBuilder interface {
	EnsureIndex(ctx context.Context) error
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface on top of the use case services.
type Server struct {
	documents     DocumentService
	search        SearchService
	seed          Seeder
	eval          Evaluator
	index         IndexBuilder
	health        HealthReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	documents DocumentService,
	search SearchService,
	seed Seeder,
	eval Evaluator,
	index IndexBuilder,
	health HealthReporter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents: documents,
		search:    search,
		seed:      seed,
		eval:      eval,
		index:     index,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorResponseCodeDocumentNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorResponseCodeDocumentAlreadyExists),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorResponseCodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorResponseCodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorResponseCodeEmbeddingProviderErr),
		sentinelHandler(domain.ErrVectorSourceError, http.StatusBadGateway, ErrorResponseCodeVectorSourceError),
		sentinelHandler(domain.ErrDocumentStoreError,
			http.StatusServiceUnavailable, ErrorResponseCodeDocumentStoreError),
	}
	return s
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, params SearchParams) {
	req, err := request.New(
		params.Query,
		derefInt(params.Limit, 0),
		derefFloat(params.MinScore, request.DefaultMinScore),
		nil, nil,
		derefBool(params.IncludeContent, true),
		derefBool(params.IncludeHighlights, true),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

// AdvancedSearch handles POST /api/v1/search/advanced.
func (s *Server) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := request.New(
		body.Query,
		derefInt(body.Limit, 0),
		derefFloat(body.MinScore, request.DefaultMinScore),
		body.Filters,
		body.Fields,
		derefBool(body.IncludeContent, true),
		derefBool(body.IncludeHighlights, true),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req *request.Request) {
	results, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(results, req.Limit()))
}

// SimilarDocuments handles GET /api/v1/search/similar/{id}.
func (s *Server) SimilarDocuments(w http.ResponseWriter, r *http.Request, id string, params SimilarParams) {
	limit := derefInt(params.Limit, request.DefaultLimit)
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "limit must be positive")
		return
	}

	results, err := s.search.Similar(r.Context(), id, limit, derefFloat(params.MinScore, request.DefaultMinScore))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse(results, min(limit, request.MaxLimit)))
}

// RebuildIndex handles POST /api/v1/search/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.EnsureIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, errors.Join(domain.ErrVectorSourceError, err))
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// CreateDocument handles POST /api/v1/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	doc, err := s.documents.Create(r.Context(), in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse(&doc))
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams) {
	offset := derefInt(params.Offset, 0)
	docs, total, err := s.documents.List(r.Context(), offset, derefInt(params.Limit, 0))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{
		Items:  items,
		Total:  total,
		Offset: offset,
		Limit:  len(items),
	})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(&doc))
}

// UpdateDocument handles PUT /api/v1/documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request, id string) {
	in, ok := decodeDocument(w, r)
	if !ok {
		return
	}
	doc, err := s.documents.Update(r.Context(), id, in)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(&doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedDocuments handles POST /api/v1/documents/seed.
func (s *Server) SeedDocuments(w http.ResponseWriter, r *http.Request) {
	rep, err := s.seed.SeedDemo(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeedResponse{Created: rep.Created, Skipped: rep.Skipped})
}

// RunEval handles GET /api/v1/eval/run: seeds the demo corpus, then scores
// the curated queries.
func (s *Server) RunEval(w http.ResponseWriter, r *http.Request, params EvalParams) {
	if _, err := s.seed.SeedDemo(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	rep, err := s.eval.RunCurated(r.Context(), derefInt(params.K, evaluc.DefaultK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// CustomEval handles POST /api/v1/eval with caller-supplied gold sets.
func (s *Server) CustomEval(w http.ResponseWriter, r *http.Request) {
	var body EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	rep, err := s.eval.Run(r.Context(), body.Queries, derefInt(body.K, evaluc.DefaultK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeDocument(w http.ResponseWriter, r *http.Request) (documentuc.Input, bool) {
	var body DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return documentuc.Input{}, false
	}
	return documentuc.Input{Title: body.Title, Content: body.Content, Metadata: body.Metadata}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidRequest,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorSourceError,
		domain.ErrDocumentStoreError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

// requestLogger prefers the per-request logger placed in the context by the
// wide event middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l := logpkg.FromContext(r.Context()); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return s.logger
}

func documentResponse(doc *domdoc.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:          doc.ID(),
		Title:       doc.Title(),
		Content:     doc.Content(),
		ContentHash: doc.ContentHash(),
		Metadata:    doc.Metadata(),
		VectorID:    doc.VectorID(),
		Indexed:     doc.Indexed(),
	}
	if t := doc.CreatedAt(); !t.IsZero() {
		resp.CreatedAt = &t
	}
	if t := doc.UpdatedAt(); !t.IsZero() {
		resp.UpdatedAt = &t
	}
	return resp
}

func searchResponse(results []result.Result, limit int) SearchResultListResponse {
	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultItem(&results[i])
	}
	return SearchResultListResponse{Items: items, Total: len(items), Limit: limit}
}

func searchResultItem(r *result.Result) SearchResultItem {
	return SearchResultItem{
		ID:         r.ID(),
		Title:      r.Title(),
		Content:    r.Content(),
		Metadata:   r.Metadata(),
		Score:      r.Score(),
		Highlights: r.Highlights(),
	}
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
