// Package app wires configuration, storage, embedders and use cases into a
// runnable service graph shared by the API server and the operator CLI.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/semsearch/internal/config"
	"github.com/kailas-cloud/semsearch/internal/db"
	dbRedis "github.com/kailas-cloud/semsearch/internal/db/redis"
	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/domain/search/scoring"
	"github.com/kailas-cloud/semsearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/semsearch/internal/repository/document"
	"github.com/kailas-cloud/semsearch/internal/repository/embcache"
	qdrantrepo "github.com/kailas-cloud/semsearch/internal/repository/qdrant"
	"github.com/kailas-cloud/semsearch/internal/repository/resultcache"
	searchrepo "github.com/kailas-cloud/semsearch/internal/repository/search"
	"github.com/kailas-cloud/semsearch/internal/transport/hashemb"
	openaiEmb "github.com/kailas-cloud/semsearch/internal/transport/openai"
	documentuc "github.com/kailas-cloud/semsearch/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/semsearch/internal/usecase/embedding"
	evaluc "github.com/kailas-cloud/semsearch/internal/usecase/eval"
	healthuc "github.com/kailas-cloud/semsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/semsearch/internal/usecase/search"
	seeduc "github.com/kailas-cloud/semsearch/internal/usecase/seed"
)

// VectorSource is both the candidate source and the vector index.
type VectorSource interface {
	searchuc.CandidateSource
	documentuc.VectorIndex
	EnsureIndex(ctx context.Context) error
}

// App is the assembled service graph.
type App struct {
	Config    config.Config
	Store     db.Store
	Vectors   VectorSource
	Documents *documentuc.Service
	Search    *searchuc.Service
	Seed      *seeduc.Service
	Eval      *evaluc.Service
	Health    *healthuc.Service

	logger  *zap.Logger
	closers []func()
}

// New connects to storage, ensures the vector index and builds all services.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		a.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	vectorCfg := cfg.VectorConfig()
	prefix := cfg.Storage.KeyPrefix

	var vectorHealth healthuc.Checker
	switch cfg.VectorSource.Driver {
	case "qdrant":
		q, err := qdrantrepo.Dial(cfg.VectorSource.Addr, cfg.VectorSource.Collection, vectorCfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		a.closers = append(a.closers, func() { _ = q.Close() })
		a.Vectors = q
		vectorHealth = q
	default:
		a.Vectors = searchrepo.New(store, prefix, vectorCfg).WithHNSW(searchrepo.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	}

	if err := a.Vectors.EnsureIndex(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("ensure vector index: %w", err)
	}
	logger.Info("Vector index ready",
		zap.String("driver", cfg.VectorSource.Driver),
		zap.Int("dimensions", vectorCfg.Dimensions),
	)

	embeddings := buildEmbedders(cfg, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", embeddings.provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", vectorCfg.Dimensions),
	)

	scoringCfg := cfg.Search.Scoring.Resolve()
	docRepo := documentrepo.New(store, prefix)

	var cache searchuc.ResultCache
	if cfg.Search.ResultCacheTTLSec > 0 {
		cache = resultcache.New(store, prefix, Fingerprint(scoringCfg, vectorCfg),
			time.Duration(cfg.Search.ResultCacheTTLSec)*time.Second, logger)
	}

	a.Documents = documentuc.New(docRepo, a.Vectors, embeddings.document, logger).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	a.Search = searchuc.New(embeddings.query, a.Vectors, docRepo,
		searchuc.NewRanker(scoringCfg, time.Now), cache, logger)
	a.Seed = seeduc.New(a.Documents, logger)
	a.Eval = evaluc.New(a.Search, docRepo, logger)

	a.Health = healthuc.New(store, embeddings.health)
	if vectorHealth != nil {
		a.Health.WithVectorSource(vectorHealth)
	}
	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// RunStartupEval seeds the demo corpus, evaluates the curated queries and
// writes the JSON report.
func (a *App) RunStartupEval(ctx context.Context) (evaluc.Report, error) {
	seeded, err := a.Seed.SeedDemo(ctx)
	if err != nil {
		return evaluc.Report{}, fmt.Errorf("seed demo corpus: %w", err)
	}

	report, err := a.Eval.RunCurated(ctx, a.Config.Eval.K)
	if err != nil {
		return evaluc.Report{}, fmt.Errorf("run curated eval: %w", err)
	}

	if err := evaluc.WriteReport(a.Config.Eval.ReportPath, report); err != nil {
		return report, fmt.Errorf("write eval report: %w", err)
	}

	a.logger.Info("Startup evaluation finished",
		zap.Int("seeded", seeded.Created),
		zap.Float64("mrr", report.MRR),
		zap.Float64("ndcg", report.NDCG),
		zap.Float64("recall_at_k", report.RecallAtK),
		zap.String("report_path", a.Config.Eval.ReportPath),
	)
	return report, nil
}

// Fingerprint identifies a ranking configuration for result cache keys.
// fmt prints maps with sorted keys, so equal configs hash equally.
func Fingerprint(sc scoring.Config, vc domain.VectorConfig) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%+v|%s|%d", sc, vc.Model, vc.Dimensions)))
	return hex.EncodeToString(sum[:8])
}

type embedders struct {
	document domain.Embedder
	query    domain.Embedder
	health   healthuc.Checker
	provider string
}

// buildEmbedders assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Resilient(stub fallback) -> Instruction.
// Without an API key (or with stub on) the hash embedder is used directly.
func buildEmbedders(cfg config.Config, store db.KVStore, logger *zap.Logger) embedders {
	ec := cfg.Embedding

	if ec.UseStub() {
		var stub domain.Embedder = embeddinguc.NewInstrumentedEmbedder(
			hashemb.New(ec.StubDimensions), "stub", "sha256", logger)
		return embedders{
			document: withInstruction(stub, ec.DocumentInstruction),
			query:    withInstruction(stub, ec.QueryInstruction),
			provider: "stub",
		}
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     ec.APIKey,
		BaseURL:    ec.BaseURL,
		Model:      ec.Model,
		Dimensions: ec.Dimensions,
		Provider:   ec.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if ec.CacheTTLSec >= 0 {
		embedder = embcache.New(embedder, store, cfg.Storage.KeyPrefix, ec.Model,
			time.Duration(ec.CacheTTLSec)*time.Second, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)

	var limiter *rate.Limiter
	if ec.RateLimit.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(ec.RateLimit.RPS), ec.RateLimit.Burst)
	}
	embedder = embeddinguc.NewResilientEmbedder(embedder, ec.Provider, embeddinguc.RetryPolicy{
		MaxRetries:      ec.Retry.MaxRetries,
		InitialInterval: time.Duration(ec.Retry.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(ec.Retry.MaxIntervalMs) * time.Millisecond,
	}, limiter, hashemb.New(ec.Dimensions), logger)

	return embedders{
		document: withInstruction(embedder, ec.DocumentInstruction),
		query:    withInstruction(embedder, ec.QueryInstruction),
		health:   base,
		provider: ec.Provider,
	}
}

// withInstruction is outermost so the cache key includes the instruction.
func withInstruction(e domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return e
	}
	return domain.NewInstructionEmbedder(e, instruction)
}
