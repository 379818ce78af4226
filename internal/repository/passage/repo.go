package passage

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
)

// store is the consumer interface for passage storage (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Embedded is a passage together with its content embedding.
type Embedded struct {
	Passage document.Passage
	Vector  []float32
}

// Repo manages the passage index and its hashes.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a passage repository.
func New(s store, indexName, keyPrefix string, vectorDim int) *Repo {
	return &Repo{
		store:     s,
		indexName: indexName,
		keyPrefix: keyPrefix,
		vectorDim: vectorDim,
		hnsw:      HNSWConfig{M: 16, EFConstruct: 200},
	}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the passage index unless it already exists.
// Returns true if the index was created by this call.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		return false, nil
	}

	def, err := buildIndex(r.indexName, r.keyPrefix, r.vectorDim, r.hnsw)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Lost a race with a concurrent EnsureIndex.
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return true, nil
}

// DropIndex removes the passage index. Passage hashes are kept.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("drop index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert writes passages with their vectors in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, items []Embedded) error {
	if len(items) == 0 {
		return nil
	}

	batch := make([]db.HashSetItem, 0, len(items))
	for i := range items {
		it := &items[i]
		if err := it.Passage.Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		if len(it.Vector) != r.vectorDim {
			return fmt.Errorf("%w: passage %s: vector dimension %d, index expects %d",
				domain.ErrInvalidInput, it.Passage.ID, len(it.Vector), r.vectorDim)
		}
		batch = append(batch, db.HashSetItem{
			Key:    r.key(it.Passage.ID),
			Fields: passageToHash(&it.Passage, it.Vector),
		})
	}

	if err := r.store.HSetMulti(ctx, batch); err != nil {
		return fmt.Errorf("hset passages: %w", err)
	}
	return nil
}

// Get returns a stored passage by ID, without its vector.
func (r *Repo) Get(ctx context.Context, id string) (document.Passage, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return document.Passage{}, fmt.Errorf("hgetall passage %s: %w", id, err)
	}
	if len(m) == 0 {
		return document.Passage{}, domain.ErrNotFound
	}
	return passageFromHash(id, m), nil
}

// Delete removes a passage.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("del passage %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.keyPrefix + id
}
