package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	chatmodel "github.com/kailas-cloud/croptalk/internal/domain/chat"
	"github.com/kailas-cloud/croptalk/internal/domain/trace"
	retrievaluc "github.com/kailas-cloud/croptalk/internal/usecase/retrieval"
)

// ToolFindDocs is the function name offered to the model.
const ToolFindDocs = "find_docs"

// DefaultMaxRounds bounds model calls per turn.
const DefaultMaxRounds = 4

func findDocsTool() chatmodel.Tool {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	return chatmodel.Tool{
		Name:        ToolFindDocs,
		Description: "Search crop insurance documents, optionally filtered by state, county, commodity and document category.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				retrievaluc.ArgQuery:       str("The user's question."),
				retrievaluc.ArgDocCategory: str("Document category code: SP, CIH, BP or CP."),
				retrievaluc.ArgCommodity:   str("Commodity name, e.g. Corn."),
				retrievaluc.ArgCounty:      str("County name, e.g. Polk."),
				retrievaluc.ArgState:       str("State name, e.g. Iowa."),
				retrievaluc.ArgTopK: map[string]any{
					"type":        "integer",
					"description": "Number of passages to return.",
				},
				retrievaluc.ArgIncludeCommon: map[string]any{
					"type":        "boolean",
					"description": "Also match documents that apply to all states, counties or commodities.",
				},
			},
			"required": []string{retrievaluc.ArgQuery},
		},
	}
}

// FunctionsPipeline lets the model decide when to call find_docs. Conversation
// history survives between turns until Reset.
type FunctionsPipeline struct {
	completer chatmodel.Completer
	retriever Retriever
	maxRounds int
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	history []chatmodel.Message
}

// NewFunctionsPipeline creates the tool-calling backend.
func NewFunctionsPipeline(completer chatmodel.Completer, retriever Retriever, logger *zap.Logger) *FunctionsPipeline {
	return &FunctionsPipeline{
		completer: completer,
		retriever: retriever,
		maxRounds: DefaultMaxRounds,
		now:       time.Now,
		logger:    logger,
	}
}

// Run sends the question with the conversation so far and executes the tool
// calls the model requests. Each find_docs call is recorded as a FindDocs step
// with the serialized arguments under "input" and the serialized list of
// rendered documents under "output".
func (p *FunctionsPipeline) Run(ctx context.Context, question string) (*trace.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := trace.NewRecorderWithClock(StepTurn, map[string]any{"question": question}, p.now)

	user := chatmodel.Message{Role: chatmodel.RoleUser, Content: question}
	msgs := make([]chatmodel.Message, 0, len(p.history)+4)
	msgs = append(msgs, chatmodel.Message{Role: chatmodel.RoleSystem, Content: functionsSystemPrompt})
	msgs = append(msgs, p.history...)
	msgs = append(msgs, user)
	turn := []chatmodel.Message{user}

	tools := []chatmodel.Tool{findDocsTool()}
	for range p.maxRounds {
		step := rec.Start(StepChatModel, map[string]any{"messages": len(msgs)})
		c, err := p.completer.Complete(ctx, chatmodel.Request{Messages: msgs, Tools: tools})
		if err != nil {
			rec.End(step, nil, err)
			err = fmt.Errorf("chat completion: %w", err)
			return rec.Finish(nil, err), err
		}
		rec.End(step, map[string]any{"content": c.Content, "tool_calls": len(c.ToolCalls)}, nil)

		assistant := chatmodel.Message{Role: chatmodel.RoleAssistant, Content: c.Content, ToolCalls: c.ToolCalls}
		msgs = append(msgs, assistant)
		turn = append(turn, assistant)

		if len(c.ToolCalls) == 0 {
			p.history = append(p.history, turn...)
			return rec.Finish(map[string]any{"output": c.Content}, nil), nil
		}

		for _, call := range c.ToolCalls {
			result, err := p.invoke(ctx, rec, call)
			if err != nil {
				return rec.Finish(nil, err), err
			}
			tool := chatmodel.Message{Role: chatmodel.RoleTool, Content: result, ToolCallID: call.ID}
			msgs = append(msgs, tool)
			turn = append(turn, tool)
		}
	}

	p.logger.Warn("tool rounds exhausted without a final answer", zap.Int("rounds", p.maxRounds))
	p.history = append(p.history, turn...)
	return rec.Finish(nil, nil), nil
}

// Reset forgets the conversation.
func (p *FunctionsPipeline) Reset() {
	p.mu.Lock()
	p.history = nil
	p.mu.Unlock()
}

// invoke runs one tool call. Bad arguments are reported back to the model;
// retrieval failures abort the turn.
func (p *FunctionsPipeline) invoke(ctx context.Context, rec *trace.Recorder, call chatmodel.ToolCall) (string, error) {
	if call.Name != ToolFindDocs {
		p.logger.Warn("model called unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("error: unknown tool %q", call.Name), nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args == nil {
		step := rec.Start(StepFindDocs, map[string]any{"input": call.Arguments})
		err = fmt.Errorf("%w: tool arguments are not a JSON object", domain.ErrInvalidInput)
		rec.End(step, nil, err)
		return "error: " + err.Error(), nil
	}

	step := rec.Start(StepFindDocs, map[string]any{"input": repr(args)})
	out, err := p.findDocs(ctx, args)
	if err != nil {
		rec.End(step, nil, err)
		if errors.Is(err, domain.ErrInvalidInput) {
			return "error: " + err.Error(), nil
		}
		return "", fmt.Errorf("find docs: %w", err)
	}
	rec.End(step, map[string]any{"output": out}, nil)
	return out, nil
}

func (p *FunctionsPipeline) findDocs(ctx context.Context, args map[string]any) (string, error) {
	q, err := retrievaluc.QueryFromArgs(args)
	if err != nil {
		return "", err
	}
	docs, err := p.retriever.GetDocuments(ctx, q)
	if err != nil {
		return "", err
	}
	return repr(renderAll(docs)), nil
}
