package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/repository/passage"
)

// maxLineSize bounds one JSONL record; passages are capped well below it.
const maxLineSize = 4 * document.MaxPassageSize

func runIngest(ctx context.Context, opts *rootOptions, path string, batchSize int, out io.Writer) error {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("open passages: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Parse everything first so a bad line fails before any write.
	passages, err := readPassages(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	a, err := newApp(ctx, opts, "ingest")
	if err != nil {
		return err
	}
	defer a.close()

	repo := a.passages()
	if _, err := repo.EnsureIndex(ctx); err != nil {
		return err
	}

	embedder := a.documentEmbedder()
	total := 0
	tokens := 0
	for _, batch := range batches(passages, batchSize) {
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}
		vectors, used, err := domain.EmbedAll(ctx, embedder, texts)
		if err != nil {
			return fmt.Errorf("embed passages %d..%d: %w", total, total+len(batch), err)
		}

		items := make([]passage.Embedded, len(batch))
		for i := range batch {
			items[i] = passage.Embedded{Passage: batch[i], Vector: vectors[i]}
		}
		if err := repo.Upsert(ctx, items); err != nil {
			return fmt.Errorf("store passages %d..%d: %w", total, total+len(batch), err)
		}

		total += len(batch)
		tokens += used
		a.logger.Debug("Batch stored", zap.Int("stored", total), zap.Int("of", len(passages)))
	}

	a.logger.Info("Ingestion complete",
		zap.String("path", path),
		zap.Int("passages", total),
		zap.Int("tokens", tokens),
	)
	fmt.Fprintf(out, "stored %d passages in %s\n", total, a.cfg.Retrieval.IndexName)
	return nil
}

// readPassages decodes one passage per non-blank line. Passages without an
// id get a random one.
func readPassages(r io.Reader) ([]document.Passage, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []document.Passage
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var p document.Passage
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return out, nil
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
