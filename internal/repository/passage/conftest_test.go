package passage

import (
	"context"
	"maps"

	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
)

const testVectorDim = 4

// memStore keeps hashes and index definitions in maps and reproduces the
// error contract of the redis driver. fail, when set, is returned by every call.
type memStore struct {
	hashes  map[string]map[string]string
	indexes map[string]db.IndexDefinition
	writes  int
	fail    error
}

func newMemStore() *memStore {
	return &memStore{hashes: map[string]map[string]string{}, indexes: map[string]db.IndexDefinition{}}
}

func (m *memStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.fail != nil {
		return m.fail
	}
	m.writes++
	for _, it := range items {
		h := m.hashes[it.Key]
		if h == nil {
			h = map[string]string{}
			m.hashes[it.Key] = h
		}
		maps.Copy(h, it.Fields)
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	return maps.Clone(m.hashes[key]), nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	if m.fail != nil {
		return m.fail
	}
	delete(m.hashes, key)
	return nil
}

func (m *memStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.indexes[def.Name]; ok {
		return &db.Error{Op: db.OpCreateIndex, Err: db.ErrIndexExists}
	}
	m.indexes[def.Name] = *def
	return nil
}

func (m *memStore) DropIndex(_ context.Context, name string) error {
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.indexes[name]; !ok {
		return &db.Error{Op: db.OpDropIndex, Err: db.ErrIndexNotFound}
	}
	delete(m.indexes, name)
	return nil
}

func (m *memStore) IndexExists(_ context.Context, name string) (bool, error) {
	if m.fail != nil {
		return false, m.fail
	}
	_, ok := m.indexes[name]
	return ok, nil
}

// racingStore reports the index missing, then loses the CreateIndex race.
type racingStore struct{ *memStore }

func (racingStore) IndexExists(context.Context, string) (bool, error) { return false, nil }

func newTestRepo(s store) *Repo {
	return New(s, "croptalk:passages:idx", "croptalk:passage:", testVectorDim)
}

func testPassage(id string) document.Passage {
	return document.Passage{
		ID:          id,
		S3Key:       "sp/19/0041.pdf",
		Title:       "Corn Special Provisions",
		Page:        "2",
		DocCategory: "SP",
		State:       "19",
		County:      "153",
		Commodity:   "0041",
		Content:     "Final planting date is May 31.",
	}
}

func embedded(id string) Embedded {
	return Embedded{Passage: testPassage(id), Vector: []float32{0.1, 0.2, 0.3, 0.4}}
}
