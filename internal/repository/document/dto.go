package document

import (
	"encoding/json"
	"fmt"
	"time"

	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// Hash field names.
const (
	fieldID          = "id"
	fieldTitle       = "title"
	fieldContent     = "content"
	fieldContentHash = "content_hash"
	fieldMetadata    = "metadata"
	fieldVectorID    = "vector_id"
	fieldCreatedAt   = "created_at"
	fieldUpdatedAt   = "updated_at"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domdoc.Document) (map[string]string, error) {
	meta := doc.Metadata()
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	return map[string]string{
		fieldID:          doc.ID(),
		fieldTitle:       doc.Title(),
		fieldContent:     doc.Content(),
		fieldContentHash: doc.ContentHash(),
		fieldMetadata:    string(metaJSON),
		fieldVectorID:    doc.VectorID(),
		fieldCreatedAt:   formatTime(doc.CreatedAt()),
		fieldUpdatedAt:   formatTime(doc.UpdatedAt()),
	}, nil
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(id string, m map[string]string) (domdoc.Document, error) {
	var meta map[string]string
	if raw := m[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return domdoc.Document{}, fmt.Errorf("unmarshal metadata of %s: %w", id, err)
		}
	}

	return domdoc.Reconstruct(
		id, m[fieldTitle], m[fieldContent], m[fieldContentHash], meta,
		m[fieldVectorID], parseTime(m[fieldCreatedAt]), parseTime(m[fieldUpdatedAt]),
	), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime returns the zero time for empty or malformed values.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
