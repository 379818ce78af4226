package retrieval

import (
	"context"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
	"github.com/kailas-cloud/croptalk/internal/domain/search/filter"
)

// Lookup resolves free-text facet names to canonical codes.
type Lookup interface {
	State(name string) facet.Resolution
	County(name, state string) facet.Resolution
	Commodity(name string) facet.Resolution
}

// Repository defines the vector index contract.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, filters filter.Expression, topK int) ([]candidate.Candidate, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// FullTextFetcher returns the complete text of a source document by its key.
type FullTextFetcher interface {
	FetchText(ctx context.Context, key string) (string, error)
}
