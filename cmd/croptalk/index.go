package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
)

func runIndex(ctx context.Context, opts *rootOptions, drop bool, out io.Writer) error {
	a, err := newApp(ctx, opts, "index")
	if err != nil {
		return err
	}
	defer a.close()

	repo := a.passages()
	name := a.cfg.Retrieval.IndexName

	if drop {
		if err := repo.DropIndex(ctx); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(out, "index %s does not exist\n", name)
				return nil
			}
			return err
		}
		a.logger.Info("Index dropped", zap.String("index", name))
		fmt.Fprintf(out, "dropped index %s\n", name)
		return nil
	}

	created, err := repo.EnsureIndex(ctx)
	if err != nil {
		return err
	}
	if created {
		a.logger.Info("Index created", zap.String("index", name), zap.Int("dimensions", a.cfg.Embedding.Dimensions))
		fmt.Fprintf(out, "created index %s\n", name)
	} else {
		fmt.Fprintf(out, "index %s already exists\n", name)
	}
	return nil
}
