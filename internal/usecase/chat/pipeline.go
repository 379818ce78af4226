// Package chat runs one conversational turn through a chat model and records
// the retrieval it triggers as a trace.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/croptalk/internal/domain/document"
	"github.com/kailas-cloud/croptalk/internal/domain/trace"
)

// Mode selects the conversational backend.
type Mode string

const (
	// ModeLLM extracts facets with one prompt each, then retrieves.
	ModeLLM Mode = "llm"
	// ModeFunctions lets the model call the find_docs tool.
	ModeFunctions Mode = "functions"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLLM, ModeFunctions:
		return m, nil
	}
	return "", fmt.Errorf("unknown chat mode %q (want %q or %q)", s, ModeLLM, ModeFunctions)
}

// Trace step names.
const (
	StepTurn      = "Turn"
	StepFindDocs  = trace.StepFindDocs
	StepChatModel = "ChatModel"
)

// Pipeline answers a question and returns the recorded run. The run is returned
// even when err is non-nil so failed turns can still be inspected.
type Pipeline interface {
	Run(ctx context.Context, question string) (*trace.Run, error)
	Reset()
}

func renderAll(docs []document.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Render())
	}
	return out
}
