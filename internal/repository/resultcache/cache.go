package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/db"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores ranked results in Redis, keyed by a canonical serialization of the request.
// Failures are logged and treated as misses.
type Cache struct {
	store       store
	keyPrefix   string
	fingerprint string
	ttl         time.Duration
	logger      *zap.Logger
}

// New creates a result cache. fingerprint identifies the ranking configuration,
// so a config change never serves results ranked under the old one.
func New(s store, prefix, fingerprint string, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		store:       s,
		keyPrefix:   prefix + "search_cache:",
		fingerprint: fingerprint,
		ttl:         ttl,
		logger:      logger,
	}
}

// keyPayload is the canonical form of a request. Map keys marshal sorted.
type keyPayload struct {
	Fingerprint       string            `json:"fp"`
	Query             string            `json:"q"`
	Limit             int               `json:"limit"`
	MinScore          float64           `json:"min_score"`
	Filters           map[string]string `json:"filters,omitempty"`
	Fields            []string          `json:"fields,omitempty"`
	IncludeContent    bool              `json:"content"`
	IncludeHighlights bool              `json:"highlights"`
}

// entry is the cached form of a result.
type entry struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Content    string            `json:"content,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Score      float64           `json:"score"`
	Highlights []string          `json:"highlights,omitempty"`
}

// Key returns the cache key for a request.
func (c *Cache) Key(req *request.Request) string {
	fields := slices.Clone(req.Fields())
	slices.Sort(fields)

	payload, _ := json.Marshal(keyPayload{ //nolint:errchkjson // plain strings and numbers
		Fingerprint:       c.fingerprint,
		Query:             req.Query(),
		Limit:             req.Limit(),
		MinScore:          req.MinScore(),
		Filters:           req.Filters(),
		Fields:            fields,
		IncludeContent:    req.IncludeContent(),
		IncludeHighlights: req.IncludeHighlights(),
	})
	h := sha256.Sum256(payload)
	return c.keyPrefix + hex.EncodeToString(h[:])
}

// Get returns cached results for the request.
func (c *Cache) Get(ctx context.Context, req *request.Request) ([]result.Result, bool) {
	key := c.Key(req)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read search cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("Failed to decode search cache", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}

	out := make([]result.Result, 0, len(entries))
	for _, e := range entries {
		out = append(out, result.New(e.ID, e.Title, e.Content, e.Metadata, e.Score, e.Highlights))
	}
	return out, true
}

// Set stores results for the request. Empty result sets are not cached.
func (c *Cache) Set(ctx context.Context, req *request.Request, results []result.Result) {
	if len(results) == 0 {
		return
	}

	entries := make([]entry, 0, len(results))
	for i := range results {
		r := &results[i]
		entries = append(entries, entry{
			ID:         r.ID(),
			Title:      r.Title(),
			Content:    r.Content(),
			Metadata:   r.Metadata(),
			Score:      r.Score(),
			Highlights: r.Highlights(),
		})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("Failed to encode search cache", zap.Error(err))
		return
	}

	key := c.Key(req)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to write search cache", zap.String("key", key), zap.Error(err))
	}
}
