package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	chatmodel "github.com/kailas-cloud/croptalk/internal/domain/chat"
	"github.com/kailas-cloud/croptalk/internal/domain/facet"
	"github.com/kailas-cloud/croptalk/internal/domain/trace"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

type extraction struct {
	facet  facet.Facet
	step   string
	prompt string
}

var extractions = []extraction{
	{facet.Commodity, "IdentifyCommodity", identifyCommodityPrompt},
	{facet.State, "IdentifyState", identifyStatePrompt},
	{facet.County, "IdentifyCounty", identifyCountyPrompt},
	{facet.DocCategory, "IdentifyDocCategory", identifyDocCategoryPrompt},
}

// LLMPipeline asks the model for each facet separately and then retrieves with
// the answers as filters. It keeps no conversation state.
type LLMPipeline struct {
	completer chatmodel.Completer
	retriever Retriever
	topK      int
	now       func() time.Time
	logger    *zap.Logger
}

// NewLLMPipeline creates the prompt-extraction backend.
func NewLLMPipeline(completer chatmodel.Completer, retriever Retriever, topK int, logger *zap.Logger) *LLMPipeline {
	if topK <= 0 {
		topK = retrievaluc.DefaultTopK
	}
	return &LLMPipeline{
		completer: completer,
		retriever: retriever,
		topK:      topK,
		now:       time.Now,
		logger:    logger,
	}
}

// Run extracts facets, retrieves documents and records a FindDocs step whose
// inputs are the raw extracted values and whose outputs carry both the
// structured documents and their rendered form.
func (p *LLMPipeline) Run(ctx context.Context, question string) (*trace.Run, error) {
	rec := trace.NewRecorderWithClock(StepTurn, map[string]any{"question": question}, p.now)

	var values facet.Values
	for _, ex := range extractions {
		answer, err := p.identify(ctx, rec, ex, question)
		if err != nil {
			err = fmt.Errorf("identify %s: %w", ex.facet, err)
			return rec.Finish(nil, err), err
		}
		values.Set(ex.facet, answer)
	}

	step := rec.Start(StepFindDocs, map[string]any{
		"question":     question,
		"commodity":    values.Commodity,
		"state":        values.State,
		"county":       values.County,
		"doc_category": values.DocCategory,
	})
	q := retrievaluc.Query{Text: question, Facets: values, TopK: p.topK, IncludeCommon: true}
	docs, err := p.retriever.GetDocuments(ctx, q)
	if err != nil {
		rec.End(step, nil, err)
		err = fmt.Errorf("find docs: %w", err)
		return rec.Finish(nil, err), err
	}

	rendered := renderAll(docs)
	rec.End(step, map[string]any{"documents": docs, "output": rendered}, nil)

	p.logger.Debug("llm turn completed",
		zap.String("state", values.State),
		zap.String("county", values.County),
		zap.String("commodity", values.Commodity),
		zap.String("doc_category", values.DocCategory),
		zap.Int("documents", len(docs)),
	)
	return rec.Finish(map[string]any{"output": rendered}, nil), nil
}

// Reset is a no-op; every turn starts without history.
func (p *LLMPipeline) Reset() {}

func (p *LLMPipeline) identify(ctx context.Context, rec *trace.Recorder, ex extraction, question string) (string, error) {
	step := rec.Start(ex.step, map[string]any{"question": question})
	c, err := p.completer.Complete(ctx, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: fmt.Sprintf(ex.prompt, question)}},
	})
	if err != nil {
		rec.End(step, nil, err)
		return "", err
	}
	answer := cleanAnswer(c.Content)
	rec.End(step, map[string]any{"output": answer}, nil)
	return answer, nil
}

// cleanAnswer strips the decoration models put around one-word answers.
// Quotes and a trailing period may wrap each other in any order, so it trims
// until nothing changes.
func cleanAnswer(s string) string {
	for {
		trimmed := strings.TrimSuffix(strings.TrimSpace(s), ".")
		trimmed = strings.Trim(strings.TrimSpace(trimmed), "\"'`")
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
