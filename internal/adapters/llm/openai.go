package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talentops/recruiter-agent/internal/domain"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient talks to the OpenAI chat-completions API with tool-call
// support.
type OpenAIClient struct {
	apiKey    string
	modelName string
	endpoint  string
	client    *http.Client
}

type OpenAIOption func(*OpenAIClient)

func WithOpenAIEndpoint(endpoint string) OpenAIOption {
	return func(c *OpenAIClient) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if client != nil {
			c.client = client
		}
	}
}

func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	if model == "" {
		model = "gpt-4-turbo"
	}
	c := &OpenAIClient{
		apiKey:    strings.TrimSpace(apiKey),
		modelName: model,
		endpoint:  defaultOpenAIEndpoint,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ domain.ChatModel = (*OpenAIClient)(nil)
	_ domain.TextModel = (*OpenAIClient)(nil)
)

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	Tools       []openAITool    `json:"tools,omitempty"`
}

type openAITool struct {
	Type     string            `json:"type"`
	Function openAIFunctionDef `json:"function"`
}

type openAIFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function openAIToolCallFunction `json:"function"`
}

type openAIToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements domain.ChatModel.
func (c *OpenAIClient) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	messages := make([]openAIMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, turnMessages(req.Turns)...)

	choice, err := c.call(ctx, openAIRequest{
		Model:       c.modelName,
		Messages:    messages,
		Temperature: 0.7,
		Tools:       chatTools(req.Functions),
	})
	if err != nil {
		return domain.ChatResponse{}, err
	}

	out := domain.ChatResponse{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "" && tc.Type != "function" {
			continue
		}
		args := map[string]any{}
		if trimmed := strings.TrimSpace(tc.Function.Arguments); trimmed != "" {
			if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
				return domain.ChatResponse{}, fmt.Errorf("decode tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		out.Calls = append(out.Calls, domain.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	if out.Text == "" && len(out.Calls) == 0 {
		return domain.ChatResponse{}, errors.New("openai response contained no content")
	}
	return out, nil
}

// GenerateText implements domain.TextModel for the simulator.
func (c *OpenAIClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	choice, err := c.call(ctx, openAIRequest{
		Model: c.modelName,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", errors.New("openai response contained no content")
	}
	return choice.Message.Content, nil
}

func (c *OpenAIClient) call(ctx context.Context, payload openAIRequest) (openAIChoice, error) {
	if c.apiKey == "" {
		return openAIChoice{}, errors.New("openai api key is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return openAIChoice{}, fmt.Errorf("marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return openAIChoice{}, fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return openAIChoice{}, fmt.Errorf("call openai api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return openAIChoice{}, parseOpenAIError(resp)
	}

	var parsed openAIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return openAIChoice{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return openAIChoice{}, errors.New("openai response contained no choices")
	}
	return parsed.Choices[0], nil
}

func turnMessages(turns []domain.Turn) []openAIMessage {
	var messages []openAIMessage
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			messages = append(messages, openAIMessage{Role: "user", Content: t.Text})
		case domain.RoleAssistant:
			messages = append(messages, openAIMessage{Role: "assistant", Content: t.Text})
		case domain.RoleFunctionCall:
			if t.Call == nil {
				continue
			}
			args, _ := json.Marshal(t.Call.Arguments)
			messages = append(messages, openAIMessage{
				Role: "assistant",
				ToolCalls: []openAIToolCall{{
					ID:   t.Call.ID,
					Type: "function",
					Function: openAIToolCallFunction{
						Name:      t.Call.Name,
						Arguments: string(args),
					},
				}},
			})
		case domain.RoleFunctionResult:
			if t.Result == nil {
				continue
			}
			payload, _ := json.Marshal(t.Result.Payload)
			messages = append(messages, openAIMessage{
				Role:       "tool",
				ToolCallID: t.Result.CallID,
				Content:    string(payload),
			})
		}
	}
	return messages
}

func chatTools(defs []domain.FunctionDefinition) []openAITool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]openAITool, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, openAITool{
			Type: "function",
			Function: openAIFunctionDef{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  jsonSchema(def.Parameters),
			},
		})
	}
	return tools
}

// jsonSchema renders a parameter map as the JSON-schema object the
// chat-completions tools field expects.
func jsonSchema(params map[string]domain.ParamSpec) map[string]any {
	properties := make(map[string]any, len(params))
	var required []string
	for name, p := range params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == domain.TypeArray && p.Items != "" {
			prop["items"] = map[string]any{"type": string(p.Items)}
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func parseOpenAIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	message := strings.TrimSpace(string(body))
	var envelope openAIErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("openai api status %d: %s", resp.StatusCode, message)
}
