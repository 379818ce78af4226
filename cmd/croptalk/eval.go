package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/repository/evalset"
	chatuc "github.com/kailas-cloud/croptalk/internal/usecase/chat"
	"github.com/kailas-cloud/croptalk/internal/usecase/evaluation"
)

func runEval(ctx context.Context, opts *rootOptions, eo *evalOptions, out io.Writer) error {
	mode, err := chatuc.ParseMode(eo.mode)
	if err != nil {
		return err
	}

	// A malformed evaluation set aborts before anything connects.
	tbl, cases, err := evalset.Load(eo.evalPath)
	if err != nil {
		return fmt.Errorf("load evaluation set: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts, "eval")
	if err != nil {
		return err
	}
	defer a.close()

	svc, _, err := a.retrieval(ctx)
	if err != nil {
		return err
	}

	var pipeline evaluation.Pipeline
	switch mode {
	case chatuc.ModeLLM:
		pipeline = chatuc.NewLLMPipeline(a.chatClient(), svc, a.cfg.Retrieval.TopK, a.logger)
	case chatuc.ModeFunctions:
		pipeline = chatuc.NewFunctionsPipeline(a.chatClient(), svc, a.logger)
	}

	a.logger.Info("Evaluating",
		zap.String("eval_path", eo.evalPath),
		zap.String("mode", string(mode)),
		zap.Int("cases", len(cases)),
	)

	rep, err := evaluation.NewRunner(pipeline, string(mode), a.logger).Run(ctx, cases)
	if err != nil {
		return err
	}

	outPath := eo.outputPath
	if outPath == "" {
		outPath = evalset.OutputPath(eo.evalPath, string(mode))
	}
	if err := evalset.Save(outPath, tbl, rep.Rows, rep.Summary); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	printSummary(out, outPath, len(rep.Rows), rep.Summary)
	return nil
}

func printSummary(w io.Writer, path string, n int, s evalcase.Summary) {
	fmt.Fprintf(w, "scored %d use cases, report written to %s\n", n, path)
	for i, col := range evalcase.MatchColumns() {
		if i < len(s.Matches) {
			fmt.Fprintf(w, "  %-24s %s\n", col, formatMean(s.Matches[i]))
		}
	}
	fmt.Fprintf(w, "  %-24s %s\n", evalcase.ColScore, formatMean(s.Score))
}

func formatMean(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
