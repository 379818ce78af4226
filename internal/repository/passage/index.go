package passage

import (
	"github.com/kailas-cloud/croptalk/internal/db"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// tagFields are the passage attributes the retrieval filter can constrain.
var tagFields = []string{
	candidate.FieldSourceKey,
	candidate.FieldDocCategory,
	candidate.FieldState,
	candidate.FieldCounty,
	candidate.FieldCommodity,
}

// buildIndex describes the FT index over passage hashes.
// Title, page and content are stored on the hash but not indexed.
func buildIndex(name, keyPrefix string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	def := &db.IndexDefinition{
		Name:   name,
		Prefix: keyPrefix,
		Vector: db.VectorField{
			Name:        candidate.FieldVector,
			Dim:         vectorDim,
			Distance:    db.DistanceCosine,
			M:           hnsw.M,
			EFConstruct: hnsw.EFConstruct,
		},
	}
	for _, f := range tagFields {
		// Codes such as "0041" must match exactly.
		def.Tags = append(def.Tags, db.TagField{Name: f, CaseSensitive: true})
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}
