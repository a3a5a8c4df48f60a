package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/semsearch/internal/domain"
	"github.com/kailas-cloud/semsearch/internal/metrics"
)

// RetryPolicy configures exponential backoff for provider calls.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries twice, starting at 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// ResilientEmbedder adds client-side rate limiting, retries with exponential
// backoff and an optional fallback embedder used once retries are exhausted.
type ResilientEmbedder struct {
	inner    domain.Embedder
	fallback domain.Embedder
	limiter  *rate.Limiter
	policy   RetryPolicy
	provider string
	logger   *zap.Logger
}

// NewResilientEmbedder creates the decorator. limiter and fallback may be nil.
func NewResilientEmbedder(
	inner domain.Embedder, provider string, policy RetryPolicy,
	limiter *rate.Limiter, fallback domain.Embedder, logger *zap.Logger,
) *ResilientEmbedder {
	return &ResilientEmbedder{
		inner:    inner,
		fallback: fallback,
		limiter:  limiter,
		policy:   policy,
		provider: provider,
		logger:   logger,
	}
}

// Embed calls the inner embedder with retries. Context cancellation is never retried
// and never falls back.
func (e *ResilientEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult

	op := func() error {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(fmt.Errorf("%w: %w", domain.ErrRateLimited, err))
			}
		}
		res, err := e.inner.Embed(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = res
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.EmbeddingRetriesTotal.WithLabelValues(e.provider).Inc()
		e.logger.Warn("Embedding attempt failed, retrying",
			zap.String("provider", e.provider),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(op, e.backOff(ctx), notify)
	if err == nil {
		return result, nil
	}

	if e.fallback == nil || ctx.Err() != nil || errors.Is(err, domain.ErrRateLimited) {
		return domain.EmbeddingResult{}, fmt.Errorf("embed with retry: %w", err)
	}

	metrics.EmbeddingFallbackTotal.WithLabelValues(e.provider).Inc()
	e.logger.Warn("Embedding provider unavailable, using fallback embedder",
		zap.String("provider", e.provider),
		zap.Error(err),
	)

	fb, fbErr := e.fallback.Embed(ctx, text)
	if fbErr != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("fallback embed: %w", errors.Join(err, fbErr))
	}
	return fb, nil
}

func (e *ResilientEmbedder) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if e.policy.InitialInterval > 0 {
		eb.InitialInterval = e.policy.InitialInterval
	}
	if e.policy.MaxInterval > 0 {
		eb.MaxInterval = e.policy.MaxInterval
	}
	eb.MaxElapsedTime = 0

	retries := e.policy.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}
