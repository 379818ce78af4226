package embcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain"
)

type stubEmbedder struct {
	res   domain.EmbeddingResult
	err   error
	texts []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	return s.res, s.err
}

// memKV is an in-memory kv that records the TTL of every write.
type memKV struct {
	mu       sync.Mutex
	data     map[string][]byte
	ttls     map[string]time.Duration
	readErr  error
	writeErr error
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) onlyKey() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) != 1 {
		return "", errors.New("expected exactly one entry")
	}
	for k := range m.data {
		return k, nil
	}
	return "", nil
}
