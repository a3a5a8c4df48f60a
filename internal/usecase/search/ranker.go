package search

import (
	"sort"
	"time"

	domdoc "github.com/kailas-cloud/semsearch/internal/domain/document"
	"github.com/kailas-cloud/semsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/semsearch/internal/domain/search/highlight"
	"github.com/kailas-cloud/semsearch/internal/domain/search/lexical"
	"github.com/kailas-cloud/semsearch/internal/domain/search/request"
	"github.com/kailas-cloud/semsearch/internal/domain/search/result"
	"github.com/kailas-cloud/semsearch/internal/domain/search/scoring"
)

// Ranker turns vector candidates into scored, projected results.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	cfg   scoring.Config
	clock scoring.Clock
}

// NewRanker creates a ranker. A nil clock means time.Now.
func NewRanker(cfg scoring.Config, clock scoring.Clock) *Ranker {
	if clock == nil {
		clock = time.Now
	}
	return &Ranker{cfg: cfg, clock: clock}
}

// Config returns the scoring configuration in use.
func (r *Ranker) Config() scoring.Config { return r.cfg }

type scored struct {
	res   result.Result
	score float64
}

// Rank scores candidates against req. Candidates without a loaded document or
// failing the metadata filter are skipped. Output follows candidate order
// unless ResortByScore is set, and is truncated to req.Limit().
func (r *Ranker) Rank(
	req *request.Request, candidates []candidate.Candidate, docs map[string]domdoc.Document,
) []result.Result {
	survivors := make([]candidate.Candidate, 0, len(candidates))
	for _, c := range candidates {
		doc, ok := docs[c.ID()]
		if !ok {
			continue
		}
		if !req.Matches(doc.Metadata()) {
			continue
		}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return []result.Result{}
	}

	lexicalScores := r.lexicalScores(req.Query(), survivors, docs)
	now := r.clock()

	out := make([]scored, 0, len(survivors))
	for i, c := range survivors {
		doc := docs[c.ID()]

		vector := scoring.Clamp(c.Score())
		lex := vector
		if lexicalScores != nil {
			lex = lexicalScores[i]
		}
		s := scoring.Blend(vector, lex, r.cfg)
		s = scoring.ApplyBoosts(doc.Metadata(), s, r.cfg.Boosts)
		ref := scoring.ReferenceTime(doc.UpdatedAt(), doc.CreatedAt(), now)
		s = scoring.ApplyDecay(ref, now, s, r.cfg.RecencyEnabled, r.cfg.HalfLifeSeconds)

		out = append(out, scored{res: r.project(req, &doc, s), score: s})
	}

	if r.cfg.ResortByScore {
		sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	}
	if len(out) > req.Limit() {
		out = out[:req.Limit()]
	}

	results := make([]result.Result, len(out))
	for i := range out {
		results[i] = out[i].res
	}
	return results
}

// lexicalScores returns BM25 per survivor, or nil when hybrid is disabled.
// Corpus statistics cover exactly the surviving batch.
func (r *Ranker) lexicalScores(
	query string, survivors []candidate.Candidate, docs map[string]domdoc.Document,
) []float64 {
	if !r.cfg.HybridEnabled {
		return nil
	}

	corpus := make([][]string, len(survivors))
	for i, c := range survivors {
		doc := docs[c.ID()]
		corpus[i] = lexical.Tokenize(doc.Content())
	}
	stats := lexical.NewCorpusStats(corpus)
	queryTerms := lexical.Tokenize(query)
	params := lexical.Params{K1: r.cfg.K1, B: r.cfg.B}

	scores := make([]float64, len(survivors))
	for i := range corpus {
		scores[i] = scoring.Clamp(lexical.Score(queryTerms, corpus[i], stats, params))
	}
	return scores
}

func (r *Ranker) project(req *request.Request, doc *domdoc.Document, score float64) result.Result {
	var content string
	if req.IncludeContent() {
		content = doc.Content()
	}
	var highlights []string
	if req.IncludeHighlights() {
		highlights = highlight.Extract(doc.Content(), req.Query())
	}
	return result.New(doc.ID(), doc.Title(), content, req.Project(doc.Metadata()), score, highlights)
}
