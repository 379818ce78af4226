// Package embcache memoizes query embeddings in the key-value side of the
// store. Evaluation runs replay the same questions, so a warm cache skips the
// provider entirely.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain"
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures a cache.
type Options struct {
	Prefix string
	// Model is part of every key, so switching models never serves old vectors.
	Model string
	// TTL of zero keeps entries until evicted.
	TTL time.Duration
	// Lookups, when set, is incremented with result="hit" or "miss".
	Lookups *prometheus.CounterVec
	Logger  *zap.Logger
}

// Embedder is a read-through cache in front of another domain.Embedder.
// Store failures degrade to a miss and are only logged.
type Embedder struct {
	inner domain.Embedder
	kv    kv
	opts  Options
}

// New wraps inner with a cache kept in store.
func New(inner domain.Embedder, store kv, opts Options) *Embedder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Embedder{inner: inner, kv: store, opts: opts}
}

// Embed serves text from the cache when possible. A hit reports zero tokens.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.key(text)
	if vec := e.lookup(ctx, key); vec != nil {
		e.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	e.count("miss")

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if err := e.kv.SetWithTTL(ctx, key, encode(res.Embedding), e.opts.TTL); err != nil {
		e.opts.Logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.opts.Prefix + e.opts.Model + ":" + hex.EncodeToString(sum[:])
}

func (e *Embedder) lookup(ctx context.Context, key string) []float32 {
	raw, err := e.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		e.opts.Logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	vec, err := decode(raw)
	if err != nil {
		e.opts.Logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (e *Embedder) count(result string) {
	if e.opts.Lookups != nil {
		e.opts.Lookups.WithLabelValues(result).Inc()
	}
}

// encode stores a vector as little-endian float32s.
func encode(vec []float32) []byte {
	out, _ := binary.Append(make([]byte, 0, 4*len(vec)), binary.LittleEndian, vec)
	return out
}

func decode(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("%d bytes is not a float32 vector", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	if _, err := binary.Decode(raw, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return vec, nil
}
