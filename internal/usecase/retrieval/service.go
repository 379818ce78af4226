package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
	logpkg "github.com/kailas-cloud/croptalk/internal/logger"
	"github.com/kailas-cloud/croptalk/internal/metrics"
	"github.com/kailas-cloud/croptalk/internal/retry"
)

// Result is a retrieval outcome with the filter that produced it.
type Result struct {
	Documents   []document.Document
	Filter      filter.Expression
	Resolutions []facet.Resolution
	Candidates  int
}

// Service finds documents matching a query and its facets.
type Service struct {
	builder          *FilterBuilder
	repo             Repository
	embed            Embedder
	formatter        *Formatter
	fullTextCategory string
	policy           retry.Policy
	logger           *zap.Logger
}

// New creates a retrieval service.
func New(
	builder *FilterBuilder, repo Repository, embed Embedder, formatter *Formatter,
	policy retry.Policy, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		builder:          builder,
		repo:             repo,
		embed:            embed,
		formatter:        formatter,
		fullTextCategory: formatter.fullTextCategory,
		policy:           policy,
		logger:           logger,
	}
}

// GetDocuments returns formatted documents for q.
func (s *Service) GetDocuments(ctx context.Context, q Query) ([]document.Document, error) {
	res, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.Documents, nil
}

// Search runs filter construction, similarity search, deduplication and formatting.
// Full-text fetches happen only for candidates that survive deduplication.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	start := time.Now()
	res, err := s.search(ctx, q)
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrInvalidInput):
		metrics.RetrievalRequestsTotal.WithLabelValues("invalid").Inc()
	default:
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *Service) search(ctx context.Context, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	if q.TopK == 0 {
		q.TopK = DefaultTopK
	}

	expr, resolutions, err := s.builder.Build(q.Facets, q.IncludeCommon)
	if err != nil {
		return Result{}, err
	}

	emb, out := retry.DoValue(ctx, s.policy, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return s.embed.Embed(ctx, q.Text)
	})
	if out.Err != nil {
		return Result{}, fmt.Errorf("vectorize query: %w", out.Err)
	}

	cands, out := retry.DoValue(ctx, s.policy, func(ctx context.Context) ([]candidate.Candidate, error) {
		return s.repo.SearchKNN(ctx, emb.Embedding, expr, q.TopK)
	})
	if out.Err != nil {
		return Result{}, fmt.Errorf("search knn (%d attempts): %w", out.Attempts, out.Err)
	}

	keep := Dedupe(cands, s.fullTextCategory)
	if dropped := len(cands) - len(keep); dropped > 0 {
		metrics.DedupDroppedTotal.Add(float64(dropped))
		logpkg.FromContext(ctx, s.logger).Debug("dropped repeated full-text documents", zap.Int("dropped", dropped))
	}

	docs := make([]document.Document, 0, len(keep))
	for i, idx := range keep {
		doc, err := s.formatter.Format(ctx, cands[idx], i+1)
		if err != nil {
			return Result{}, fmt.Errorf("format document %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}

	return Result{
		Documents:   docs,
		Filter:      expr,
		Resolutions: resolutions,
		Candidates:  len(cands),
	}, nil
}
