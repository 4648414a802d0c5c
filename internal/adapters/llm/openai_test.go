package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/talentops/recruiter-agent/internal/adapters/llm"
	"github.com/talentops/recruiter-agent/internal/domain"
)

func TestCompleteParsesToolCalls(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []any{map[string]any{
						"id":   "call_abc",
						"type": "function",
						"function": map[string]any{
							"name":      "getJobs",
							"arguments": `{"status": "OPEN"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		})
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("test-key", "gpt-4-turbo", llm.WithOpenAIEndpoint(srv.URL))

	resp, err := client.Complete(context.Background(), domain.ChatRequest{
		System: "you are a recruiter",
		Turns: []domain.Turn{
			{Role: domain.RoleUser, Text: "show open jobs"},
		},
		Functions: []domain.FunctionDefinition{{
			Name:        "getJobs",
			Description: "Get jobs filtered by status",
			Parameters: map[string]domain.ParamSpec{
				"status": {Type: domain.TypeString, Description: "status filter"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.IsFinal() {
		t.Fatalf("expected a function call response")
	}
	if len(resp.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(resp.Calls))
	}
	call := resp.Calls[0]
	if call.ID != "call_abc" || call.Name != "getJobs" {
		t.Fatalf("unexpected call: %+v", call)
	}
	if call.Arguments["status"] != "OPEN" {
		t.Fatalf("arguments not decoded: %#v", call.Arguments)
	}

	tools, ok := captured["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("tool definitions missing from request: %#v", captured["tools"])
	}
}

func TestCompleteReplaysFunctionTurns(t *testing.T) {
	var captured struct {
		Messages []map[string]any `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"message":       map[string]any{"role": "assistant", "content": "There are 2 open roles."},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("test-key", "gpt-4-turbo", llm.WithOpenAIEndpoint(srv.URL))

	resp, err := client.Complete(context.Background(), domain.ChatRequest{
		System: "you are a recruiter",
		Turns: []domain.Turn{
			{Role: domain.RoleUser, Text: "show open jobs"},
			{Role: domain.RoleFunctionCall, Call: &domain.FunctionCall{
				ID: "call_abc", Name: "getJobs", Arguments: map[string]any{"status": "OPEN"},
			}},
			{Role: domain.RoleFunctionResult, Result: &domain.FunctionResult{
				CallID: "call_abc", Name: "getJobs",
				Payload: map[string]any{"jobs": []any{}},
			}},
		},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !resp.IsFinal() || resp.Text == "" {
		t.Fatalf("expected a final text answer, got %+v", resp)
	}

	// system, user, assistant tool_calls, tool result
	if len(captured.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(captured.Messages))
	}
	tool := captured.Messages[3]
	if tool["role"] != "tool" || tool["tool_call_id"] != "call_abc" {
		t.Fatalf("function result not replayed as a tool message: %#v", tool)
	}
}

func TestGenerateTextSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("test-key", "gpt-4-turbo", llm.WithOpenAIEndpoint(srv.URL))

	_, err := client.GenerateText(context.Background(), "system", "prompt")
	if err == nil {
		t.Fatalf("expected an error for 429")
	}
}
