package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/croptalk/internal/domain"
	"github.com/kailas-cloud/croptalk/internal/domain/chat"
)

func newTestChat(url string) *ChatClient {
	return NewChatClient(&ChatConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "test-chat",
		Logger:  zap.NewNop(),
	})
}

func TestChatClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Model != "test-chat" || len(body.Messages) != 2 || body.Messages[1].Role != "user" {
			t.Errorf("unexpected request: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "c1",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "Iowa"}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 1, "total_tokens": 13},
		})
	}))
	defer server.Close()

	got, err := newTestChat(server.URL).Complete(context.Background(), chat.Request{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "Extract the state."},
			{Role: chat.RoleUser, Content: "Corn in Iowa?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Content != "Iowa" || got.PromptTokens != 12 {
		t.Errorf("completion = %+v", got)
	}
}

func TestChatClient_ToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tools []struct {
				Type     string `json:"type"`
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tools"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Tools) != 1 || body.Tools[0].Function.Name != "find_docs" {
			t.Errorf("tools = %+v", body.Tools)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "find_docs",
							"arguments": `{"query":"planting date","state":"Iowa"}`,
						},
					}},
				},
			}},
		})
	}))
	defer server.Close()

	got, err := newTestChat(server.URL).Complete(context.Background(), chat.Request{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "planting date in Iowa"}},
		Tools: []chat.Tool{{
			Name:       "find_docs",
			Parameters: map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(got.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", got.ToolCalls)
	}
	tc := got.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "find_docs" || tc.Arguments != `{"query":"planting date","state":"Iowa"}` {
		t.Errorf("tool call = %+v", tc)
	}
}

func TestChatClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "boom"}})
	}))
	defer server.Close()

	_, err := newTestChat(server.URL).Complete(context.Background(), chat.Request{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	if !errors.Is(err, domain.ErrChatProviderError) {
		t.Fatalf("expected ErrChatProviderError, got %v", err)
	}
}

func TestExtractDetail(t *testing.T) {
	if got := extractDetail([]byte(`{"detail":"model not found"}`)); got != "model not found" {
		t.Errorf("got %q", got)
	}
	if got := extractDetail([]byte(`not json`)); got != "" {
		t.Errorf("got %q", got)
	}
}
