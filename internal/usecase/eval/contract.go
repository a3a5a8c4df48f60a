package eval

import (
	"context"

	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
)

// Searcher runs ranked search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// TitleFinder resolves curated gold documents by title.
type TitleFinder interface {
	FindByTitle(ctx context.Context, title string) (domdoc.Document, error)
}
