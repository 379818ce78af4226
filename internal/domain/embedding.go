package domain

import (
	"context"
	"fmt"
)

// Embedder turns text into a vector for the passage index.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}

// EmbeddingResult is a vector plus the tokens the provider billed for it.
// Cached results carry zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// WithInstruction prefixes every text with instruction before embedding, as
// instruction-tuned models expect different prompts for queries and passages.
// An empty instruction returns inner unchanged.
func WithInstruction(inner Embedder, instruction string) Embedder {
	if instruction == "" {
		return inner
	}
	return EmbedderFunc(func(ctx context.Context, text string) (EmbeddingResult, error) {
		res, err := inner.Embed(ctx, instruction+text)
		if err != nil {
			return EmbeddingResult{}, fmt.Errorf("instructed embed: %w", err)
		}
		return res, nil
	})
}

// EmbedAll embeds texts sequentially. vectors[i] belongs to texts[i]; tokens
// is the billed total. The first failure aborts with the failing index.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (vectors [][]float32, tokens int, err error) {
	vectors = make([][]float32, 0, len(texts))
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return nil, 0, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, res.Embedding)
		tokens += res.TotalTokens
	}
	return vectors, tokens, nil
}
