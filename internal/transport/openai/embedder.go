package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/metrics"
)

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimensions, when positive, is requested from the provider and enforced
	// on every returned vector.
	Dimensions int
	User       string
	// Provider only labels metrics.
	Provider string
	Logger   *zap.Logger
}

// Embedder calls the embeddings endpoint of an OpenAI-compatible API.
type Embedder struct {
	client *openai.Client
	cfg    Config
}

// NewEmbedder creates an embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	c := *cfg
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Embedder{client: newClient(c.APIKey, c.BaseURL), cfg: c}
}

// Embed implements domain.Embedder for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.cfg.User,
		Dimensions:     max(e.cfg.Dimensions, 0),
	}

	began := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	elapsed := time.Since(began)
	if err != nil {
		e.failed("api_error")
		return domain.EmbeddingResult{}, parseAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}

	vec, err := e.firstVector(resp)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	e.succeeded(elapsed, resp.Usage)
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (e *Embedder) firstVector(resp openai.EmbeddingResponse) ([]float32, error) {
	if len(resp.Data) == 0 {
		e.failed("empty_response")
		return nil, fmt.Errorf("provider returned no embedding: %w", domain.ErrEmbeddingProviderError)
	}
	vec := resp.Data[0].Embedding
	if want := e.cfg.Dimensions; want > 0 && len(vec) != want {
		e.failed("dimension_mismatch")
		return nil, fmt.Errorf("got %d-dimensional embedding, index expects %d: %w",
			len(vec), want, domain.ErrEmbeddingProviderError)
	}
	return vec, nil
}

func (e *Embedder) failed(class string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.cfg.Provider, e.cfg.Model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.cfg.Provider, e.cfg.Model, class).Inc()
}

func (e *Embedder) succeeded(elapsed time.Duration, usage openai.Usage) {
	p, m := e.cfg.Provider, e.cfg.Model
	metrics.EmbeddingRequestsTotal.WithLabelValues(p, m, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(p, m).Observe(elapsed.Seconds())
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p, m, "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(p, m, "total").Add(float64(usage.TotalTokens))
	}
	e.cfg.Logger.Debug("embedding done",
		zap.String("model", m),
		zap.Duration("elapsed", elapsed),
		zap.Int("tokens", usage.TotalTokens),
	)
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("embedding provider unreachable: %w", err)
	}
	return nil
}
