package document

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/semsearch/internal/db"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	hashes map[string]map[string]string
	kv     map[string][]byte

	hsetErr      error
	hgetAllErr   error
	multiErr     error
	scanErr      error
	getErr       error
	deletedKeys  []string
	lastMultiKey []string
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes: map[string]map[string]string{},
		kv:     map[string][]byte{},
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.hgetAllErr != nil {
		return nil, m.hgetAllErr
	}
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	m.lastMultiKey = keys
	if m.multiErr != nil {
		return nil, m.multiErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i], _ = m.HGetAll(ctx, k)
	}
	return out, nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	m.deletedKeys = append(m.deletedKeys, key)
	delete(m.hashes, key)
	delete(m.kv, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, _ string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.kv[key] = value
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "semsearch:"), ms
}

var testTime = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func testDocument(t *testing.T) domdoc.Document {
	t.Helper()
	d, err := domdoc.New("doc-1", "Vector Search Basics",
		"Vector search finds similar documents by comparing embeddings.",
		map[string]string{"topic": "search"})
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	d = d.WithTimestamps(testTime, testTime.Add(time.Hour))
	return d.WithVectorID("vec-1")
}
