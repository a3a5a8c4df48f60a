package chi

import (
	"time"

	"github.com/kailas-cloud/semsearch/internal/usecase/eval"
)

// ErrorResponseCode is a machine-readable error code.
type ErrorResponseCode string

// Error codes returned in ErrorResponse.
const (
	ErrorResponseCodeBadRequest            ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized          ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed      ErrorResponseCode = "validation_failed"
	ErrorResponseCodeDocumentNotFound      ErrorResponseCode = "document_not_found"
	ErrorResponseCodeDocumentAlreadyExists ErrorResponseCode = "document_already_exists"
	ErrorResponseCodeVectorDimMismatch     ErrorResponseCode = "vector_dim_mismatch"
	ErrorResponseCodeRateLimited           ErrorResponseCode = "rate_limited"
	ErrorResponseCodeEmbeddingProviderErr  ErrorResponseCode = "embedding_provider_error"
	ErrorResponseCodeVectorSourceError     ErrorResponseCode = "vector_source_error"
	ErrorResponseCodeDocumentStoreError    ErrorResponseCode = "document_store_error"
	ErrorResponseCodeInternalError         ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchRequest is the body of POST /search/advanced.
// Omitted optional fields take the documented defaults.
type SearchRequest struct {
	Query             string            `json:"query"`
	Limit             *int              `json:"limit,omitempty"`
	MinScore          *float64          `json:"min_score,omitempty"`
	Filters           map[string]string `json:"filters,omitempty"`
	Fields            []string          `json:"fields,omitempty"`
	IncludeContent    *bool             `json:"include_content,omitempty"`
	IncludeHighlights *bool             `json:"include_highlights,omitempty"`
}

// SearchParams are the query parameters of GET /search.
type SearchParams struct {
	Query             string
	Limit             *int
	MinScore          *float64
	IncludeContent    *bool
	IncludeHighlights *bool
}

// SimilarParams are the query parameters of GET /search/similar/{id}.
type SimilarParams struct {
	Limit    *int
	MinScore *float64
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Score      float64           `json:"score"`
	Highlights []string          `json:"highlights,omitempty"`
}

// SearchResultListResponse wraps ranked hits.
type SearchResultListResponse struct {
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
	Limit int                `json:"limit"`
}

// DocumentRequest is the body of document create and update.
type DocumentRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	VectorID    string            `json:"vector_id,omitempty"`
	Indexed     bool              `json:"indexed"`
	CreatedAt   *time.Time        `json:"created_at,omitempty"`
	UpdatedAt   *time.Time        `json:"updated_at,omitempty"`
}

// ListDocumentsParams are the query parameters of GET /documents.
type ListDocumentsParams struct {
	Offset *int
	Limit  *int
}

// DocumentListResponse is a page of documents.
type DocumentListResponse struct {
	Items  []DocumentResponse `json:"items"`
	Total  int                `json:"total"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
}

// SeedResponse reports a seeding run.
type SeedResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// EvalParams are the query parameters of GET /eval/run.
type EvalParams struct {
	K *int
}

// EvalRequest is the body of POST /eval with caller-supplied gold sets.
type EvalRequest struct {
	K       *int         `json:"k,omitempty"`
	Queries []eval.Query `json:"queries"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// StatusResponse is a plain acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}
