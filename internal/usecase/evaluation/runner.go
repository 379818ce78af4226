package evaluation

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain/evalcase"
	"github.com/kailas-cloud/croptalk/internal/metrics"
)

// Runner replays use cases through a pipeline one at a time and scores them.
type Runner struct {
	pipeline Pipeline
	mode     string
	logger   *zap.Logger
}

// NewRunner creates a runner. mode labels the score metric.
func NewRunner(pipeline Pipeline, mode string, logger *zap.Logger) *Runner {
	return &Runner{pipeline: pipeline, mode: mode, logger: logger}
}

// Run executes every case in order, resetting conversation state before each.
// A failing case leaves its actual columns empty and does not stop the batch;
// only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, cases []evalcase.UseCase) (Report, error) {
	start := time.Now()
	rows := make([]evalcase.Row, 0, len(cases))
	for _, uc := range cases {
		if err := ctx.Err(); err != nil {
			return Report{}, fmt.Errorf("evaluation interrupted after %d of %d cases: %w", len(rows), len(cases), err)
		}
		r.pipeline.Reset()
		rows = append(rows, evalcase.Row{Case: uc, Actual: r.observe(ctx, uc)})
	}

	rep := Score(rows)
	if !math.IsNaN(rep.Summary.Score) {
		metrics.EvalScore.WithLabelValues(r.mode).Set(rep.Summary.Score)
	}
	r.logger.Info("evaluation completed",
		zap.String("mode", r.mode),
		zap.Int("cases", len(cases)),
		zap.Float64("eval_score", rep.Summary.Score),
		zap.Duration("duration", time.Since(start)),
	)
	return rep, nil
}

func (r *Runner) observe(ctx context.Context, uc evalcase.UseCase) evalcase.Observation {
	log := r.logger.With(zap.Int("row", uc.Row))
	log.Info("running use case", zap.String("query", uc.Query))

	run, err := r.pipeline.Run(ctx, uc.Query)
	if err != nil {
		log.Error("pipeline failed, actual columns left empty", zap.Error(err))
		return evalcase.Observation{}
	}

	step, count := FindRetrievalStep(run)
	obs := evalcase.Observation{Ran: true, RetrievalSteps: count}
	switch {
	case step == nil:
		log.Info("no FindDocs step found, actual columns left empty")
		return obs
	case count > 1:
		log.Info("multiple FindDocs steps found, using the latest", zap.Int("steps", count))
	}

	extracted, err := ExtractStep(step)
	if err != nil {
		log.Warn("retrieval step unreadable, actual columns left empty", zap.Error(err))
		return obs
	}
	return extracted.Observation(count)
}
