package passage

import (
	"encoding/binary"

	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
)

func passageToHash(p *document.Passage, vector []float32) map[string]string {
	return map[string]string{
		candidate.FieldSourceKey:   p.S3Key,
		candidate.FieldTitle:       p.Title,
		candidate.FieldPage:        p.Page,
		candidate.FieldDocCategory: p.DocCategory,
		candidate.FieldState:       p.State,
		candidate.FieldCounty:      p.County,
		candidate.FieldCommodity:   p.Commodity,
		candidate.FieldContent:     p.Content,
		candidate.FieldVector:      vectorToBytes(vector),
	}
}

func passageFromHash(id string, m map[string]string) document.Passage {
	return document.Passage{
		ID:          id,
		S3Key:       m[candidate.FieldSourceKey],
		Title:       m[candidate.FieldTitle],
		Page:        m[candidate.FieldPage],
		DocCategory: m[candidate.FieldDocCategory],
		State:       m[candidate.FieldState],
		County:      m[candidate.FieldCounty],
		Commodity:   m[candidate.FieldCommodity],
		Content:     m[candidate.FieldContent],
	}
}

// vectorToBytes encodes a vector as the little-endian float32 blob FT vector fields expect.
func vectorToBytes(v []float32) string {
	buf, _ := binary.Append(make([]byte, 0, 4*len(v)), binary.LittleEndian, v)
	return string(buf)
}
