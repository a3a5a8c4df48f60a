package seed

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/semsearch/internal/domain"
	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	docuc "github.com/kailas-cloud/semsearch/internal/usecase/document"
)

type mockCreator struct {
	seen map[string]bool
	err  error
}

func (m *mockCreator) Create(_ context.Context, in docuc.Input) (domdoc.Document, error) {
	if m.err != nil {
		return domdoc.Document{}, m.err
	}
	hash := domdoc.HashContent(in.Content)
	if m.seen[hash] {
		return domdoc.Document{}, domain.ErrAlreadyExists
	}
	m.seen[hash] = true
	return domdoc.New("id-"+in.Title, in.Title, in.Content, in.Metadata)
}

func TestSeedDemo_Idempotent(t *testing.T) {
	c := &mockCreator{seen: map[string]bool{}}
	svc := New(c, zap.NewNop())
	ctx := context.Background()

	first, err := svc.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if first.Created != 3 || first.Skipped != 0 {
		t.Errorf("first = %+v", first)
	}

	second, err := svc.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second.Created != 0 || second.Skipped != 3 {
		t.Errorf("second = %+v", second)
	}
}

func TestSeed_PropagatesOtherErrors(t *testing.T) {
	c := &mockCreator{seen: map[string]bool{}, err: domain.ErrEmbeddingProviderError}
	svc := New(c, zap.NewNop())

	_, err := svc.SeedDemo(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestDemoCorpus_Titles(t *testing.T) {
	want := []string{"Vector Search Basics", "Ranking Signals", "Latency Budgets"}
	if len(DemoCorpus) != len(want) {
		t.Fatalf("corpus size = %d", len(DemoCorpus))
	}
	for i, w := range want {
		if DemoCorpus[i].Title != w {
			t.Errorf("DemoCorpus[%d] = %q, want %q", i, DemoCorpus[i].Title, w)
		}
	}
}
