package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/semsearch/internal/db"
	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo stores documents as Redis hashes with title and content-hash lookup keys.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. prefix namespaces all keys (e.g. "semsearch:").
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Save writes the document hash and refreshes its lookup keys.
// The vector field is left untouched.
func (r *Repo) Save(ctx context.Context, doc *domdoc.Document) error {
	key := DocKey(r.prefix, doc.ID())

	prev, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("hgetall %s: %w", key, err)
	}

	fields, err := buildHashFields(doc)
	if err != nil {
		return err
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}

	if old := prev[fieldTitle]; old != "" && old != doc.Title() {
		if err := r.store.Del(ctx, r.titleKey(old)); err != nil {
			return fmt.Errorf("del title lookup: %w", err)
		}
	}
	if old := prev[fieldContentHash]; old != "" && old != doc.ContentHash() {
		if err := r.store.Del(ctx, r.hashKey(old)); err != nil {
			return fmt.Errorf("del hash lookup: %w", err)
		}
	}
	if err := r.store.Set(ctx, r.titleKey(doc.Title()), []byte(doc.ID())); err != nil {
		return fmt.Errorf("set title lookup: %w", err)
	}
	if err := r.store.Set(ctx, r.hashKey(doc.ContentHash()), []byte(doc.ID())); err != nil {
		return fmt.Errorf("set hash lookup: %w", err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := DocKey(r.prefix, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m)
}

// FindByIDs loads documents in one round-trip. Missing ids are omitted.
func (r *Repo) FindByIDs(ctx context.Context, ids []string) (map[string]domdoc.Document, error) {
	out := make(map[string]domdoc.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = DocKey(r.prefix, id)
	}
	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi: %w", err)
	}

	for i, m := range rows {
		if len(m) == 0 {
			continue
		}
		doc, err := parseHashFields(ids[i], m)
		if err != nil {
			return nil, err
		}
		out[ids[i]] = doc
	}
	return out, nil
}

// FindByTitle resolves a document through the title lookup key.
func (r *Repo) FindByTitle(ctx context.Context, title string) (domdoc.Document, error) {
	return r.findByLookup(ctx, r.titleKey(title))
}

// FindByContentHash resolves a document through the content-hash lookup key.
func (r *Repo) FindByContentHash(ctx context.Context, hash string) (domdoc.Document, error) {
	return r.findByLookup(ctx, r.hashKey(hash))
}

// List returns every stored document. Intended for small corpora and tooling.
func (r *Repo) List(ctx context.Context) ([]domdoc.Document, error) {
	docPrefix := DocKey(r.prefix, "")
	keys, err := r.store.Scan(ctx, docPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return []domdoc.Document{}, nil
	}

	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, docPrefix)
	}
	byID, err := r.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	docs := make([]domdoc.Document, 0, len(byID))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// Delete removes the document hash and its lookup keys.
func (r *Repo) Delete(ctx context.Context, id string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := r.store.Del(ctx, DocKey(r.prefix, id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	if err := r.store.Del(ctx, r.titleKey(doc.Title())); err != nil {
		return fmt.Errorf("del title lookup: %w", err)
	}
	if err := r.store.Del(ctx, r.hashKey(doc.ContentHash())); err != nil {
		return fmt.Errorf("del hash lookup: %w", err)
	}
	return nil
}

func (r *Repo) findByLookup(ctx context.Context, key string) (domdoc.Document, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return domdoc.Document{}, fmt.Errorf("get %s: %w", key, err)
	}
	return r.Get(ctx, string(raw))
}

// DocKey returns the hash key of a document. Shared with the Redis vector index,
// which stores embeddings on the same hash.
func DocKey(prefix, id string) string {
	return prefix + "doc:" + id
}

func (r *Repo) titleKey(title string) string {
	return r.prefix + "title:" + title
}

func (r *Repo) hashKey(hash string) string {
	return r.prefix + "hash:" + hash
}
