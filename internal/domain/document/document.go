package document

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"
)

// Size limits.
const (
	MaxTitleLength = 512
	MaxContentSize = 163840 // 160KB
)

// Document is the document aggregate (immutable value object).
type Document struct {
	id          string
	title       string
	content     string
	contentHash string
	metadata    map[string]string
	vectorID    string
	createdAt   time.Time
	updatedAt   time.Time
}

// New validates and creates a Document. The ID is assigned by the caller.
func New(id, title, content string, metadata map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if title == "" {
		return Document{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if content == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	return Document{
		id:          id,
		title:       title,
		content:     content,
		contentHash: HashContent(content),
		metadata:    cloneStringMap(metadata),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, title, content, contentHash string, metadata map[string]string,
	vectorID string, createdAt, updatedAt time.Time,
) Document {
	return Document{
		id: id, title: title, content: content, contentHash: contentHash,
		metadata: metadata, vectorID: vectorID, createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Content returns the document text content.
func (d *Document) Content() string { return d.content }

// ContentHash returns the base64 SHA-256 of the content.
func (d *Document) ContentHash() string { return d.contentHash }

// Metadata returns the string metadata fields.
func (d *Document) Metadata() map[string]string { return d.metadata }

// VectorID returns the external vector reference, empty when not indexed.
func (d *Document) VectorID() string { return d.vectorID }

// Indexed reports whether the document has a vector in the index.
func (d *Document) Indexed() bool { return d.vectorID != "" }

// CreatedAt returns the creation time (zero if unknown).
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last-update time (zero if unknown).
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// FreshnessAt returns the timestamp used for recency decay:
// updated-at, then created-at. ok is false when both are unknown.
func (d *Document) FreshnessAt() (t time.Time, ok bool) {
	if !d.updatedAt.IsZero() {
		return d.updatedAt, true
	}
	if !d.createdAt.IsZero() {
		return d.createdAt, true
	}
	return time.Time{}, false
}

// WithVectorID returns a copy referencing the given vector.
func (d *Document) WithVectorID(vectorID string) Document {
	c := *d
	c.vectorID = vectorID
	return c
}

// WithTimestamps returns a copy with the given audit timestamps.
func (d *Document) WithTimestamps(createdAt, updatedAt time.Time) Document {
	c := *d
	c.createdAt = createdAt
	c.updatedAt = updatedAt
	return c
}

// HashContent returns the base64-encoded SHA-256 digest used for seed deduplication.
func HashContent(content string) string {
	h := sha256.Sum256([]byte(content))
	return base64.StdEncoding.EncodeToString(h[:])
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
