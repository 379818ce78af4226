package db

import "github.com/kailas-cloud/croptalk/internal/domain/search/filter"

// KNNQuery asks for the K nearest hashes to Vector among those matching Filters.
type KNNQuery struct {
	IndexName    string
	VectorField  string // "vector" when empty
	Vector       []float32
	K            int
	Filters      filter.Expression
	ReturnFields []string // all stored fields when empty
}

// SearchResult holds hits ordered from most to least similar.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit. Score is cosine similarity in [0, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
