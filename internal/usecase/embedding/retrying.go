// Package embedding holds embedder decorators that sit between callers and
// the provider transport.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	logpkg "github.com/kailas-cloud/croptalk/internal/logger"
	"github.com/kailas-cloud/croptalk/internal/retry"
)

// Retrying retries transient embedding failures and logs the outcome through
// the request logger when the context carries one. Provider metrics are
// recorded by the transport.
type Retrying struct {
	inner  domain.Embedder
	policy retry.Policy
	labels []zap.Field
	logger *zap.Logger
}

// NewRetrying wraps inner. provider and model only label log lines.
func NewRetrying(inner domain.Embedder, provider, model string, policy retry.Policy, logger *zap.Logger) *Retrying {
	return &Retrying{
		inner:  inner,
		policy: policy,
		labels: []zap.Field{zap.String("provider", provider), zap.String("model", model)},
		logger: logger,
	}
}

// Embed rejects empty text, then calls inner under the retry policy.
func (r *Retrying) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if text == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}

	res, out := retry.DoValue(ctx, r.policy, func(ctx context.Context) (domain.EmbeddingResult, error) {
		res, err := r.inner.Embed(ctx, text)
		if isFinal(err) {
			err = retry.Permanent(err)
		}
		return res, err
	})

	log := logpkg.FromContext(ctx, r.logger).With(r.labels...)
	switch {
	case out.Err != nil:
		log.Error("embedding failed",
			zap.Int("attempts", out.Attempts),
			zap.Duration("elapsed", out.Elapsed),
			zap.Error(out.Err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempt(s): %w", out.Attempts, out.Err)
	case out.Attempts > 1:
		log.Warn("embedding recovered", zap.Int("attempts", out.Attempts))
	default:
		log.Debug("embedding ok",
			zap.Duration("elapsed", out.Elapsed.Round(time.Millisecond)),
			zap.Int("dims", len(res.Embedding)),
			zap.Int("tokens", res.TotalTokens))
	}
	return res, nil
}

// isFinal reports errors another attempt cannot fix.
func isFinal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrInvalidInput)
}
