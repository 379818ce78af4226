package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recorder embeds each text as a one-element vector of its length.
type recorder struct {
	seen   []string
	failOn string
}

func (r *recorder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	r.seen = append(r.seen, text)
	if text == r.failOn {
		return EmbeddingResult{}, ErrEmbeddingProviderError
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 2}, nil
}

func TestWithInstruction(t *testing.T) {
	rec := &recorder{}
	e := WithInstruction(rec, "Represent this question: ")

	if _, err := e.Embed(context.Background(), "late planting period"); err != nil {
		t.Fatal(err)
	}
	if rec.seen[0] != "Represent this question: late planting period" {
		t.Errorf("inner saw %q", rec.seen[0])
	}

	rec.failOn = "Represent this question: boom"
	if _, err := e.Embed(context.Background(), "boom"); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("err = %v", err)
	}
}

func TestWithInstruction_EmptyIsIdentity(t *testing.T) {
	rec := &recorder{}
	if got := WithInstruction(rec, ""); got != Embedder(rec) {
		t.Errorf("empty instruction should return inner, got %T", got)
	}
}

func TestEmbedAll(t *testing.T) {
	rec := &recorder{}
	vectors, tokens, err := EmbedAll(context.Background(), rec, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatal(err)
	}
	if tokens != 6 {
		t.Errorf("tokens = %d", tokens)
	}
	for i, want := range []float32{1, 2, 3} {
		if vectors[i][0] != want {
			t.Errorf("vectors[%d] = %v, want [%v]", i, vectors[i], want)
		}
	}
}

func TestEmbedAll_StopsAtFirstFailure(t *testing.T) {
	rec := &recorder{failOn: "bb"}
	_, _, err := EmbedAll(context.Background(), rec, []string{"a", "bb", "ccc"})
	if !errors.Is(err, ErrEmbeddingProviderError) || !strings.Contains(err.Error(), "text 2 of 3") {
		t.Fatalf("err = %v", err)
	}
	if len(rec.seen) != 2 {
		t.Errorf("kept going after failure: %v", rec.seen)
	}
}
