package retrieval

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/croptalk/internal/domain/search/candidate"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name  string
		cands []candidate.Candidate
		want  []int
	}{
		{
			name: "repeated full-text key dropped",
			cands: []candidate.Candidate{
				cand("1", "keyA", "SP"), cand("2", "keyB", "SP"),
				cand("3", "keyA", "SP"), cand("4", "keyC", "OTHER"),
			},
			want: []int{0, 1, 3},
		},
		{
			name: "other categories never deduplicated",
			cands: []candidate.Candidate{
				cand("1", "keyA", "CIH"), cand("2", "keyA", "CIH"), cand("3", "keyA", "SP"),
			},
			want: []int{0, 1, 2},
		},
		{
			name:  "empty",
			cands: nil,
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.cands, "SP")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dedupe = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupe_Deterministic(t *testing.T) {
	cands := []candidate.Candidate{
		cand("1", "k1", "SP"), cand("2", "k2", "SP"), cand("3", "k1", "SP"),
		cand("4", "k3", "SP"), cand("5", "k2", "SP"), cand("6", "k4", "X"),
	}
	first := Dedupe(cands, "SP")
	for range 50 {
		if got := Dedupe(cands, "SP"); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic: %v vs %v", got, first)
		}
	}
}
