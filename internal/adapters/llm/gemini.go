package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/talentops/recruiter-agent/internal/domain"
)

// GeminiClient talks to Gemini on Vertex AI. It serves both the
// conversational loop (Complete, with function declarations) and the
// simulator (GenerateText).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

type GeminiConfig struct {
	Project  string
	Location string
	Model    string
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("gemini: project and location are required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{client: client, modelName: cfg.Model}, nil
}

var (
	_ domain.ChatModel = (*GeminiClient)(nil)
	_ domain.TextModel = (*GeminiClient)(nil)
)

// Complete implements domain.ChatModel.
func (g *GeminiClient) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	contents := historyContents(req.Turns)

	temp := float32(0.7)
	topP := float32(0.9)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   8192,
	}
	if decls := functionDeclarations(req.Functions); len(decls) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}

	out := domain.ChatResponse{Text: res.Text()}
	for _, fc := range res.FunctionCalls() {
		out.Calls = append(out.Calls, domain.FunctionCall{
			ID:        fc.ID,
			Name:      fc.Name,
			Arguments: fc.Args,
		})
	}
	if out.Text == "" && len(out.Calls) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("gemini returned empty response")
	}
	return out, nil
}

// GenerateText implements domain.TextModel for the simulator.
func (g *GeminiClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   8192,
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func historyContents(turns []domain.Turn) []*genai.Content {
	var contents []*genai.Content
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			contents = append(contents, genai.NewContentFromText(t.Text, genai.RoleUser))
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Text, genai.RoleModel))
		case domain.RoleFunctionCall:
			if t.Call == nil {
				continue
			}
			part := genai.NewPartFromFunctionCall(t.Call.Name, t.Call.Arguments)
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
		case domain.RoleFunctionResult:
			if t.Result == nil {
				continue
			}
			part := genai.NewPartFromFunctionResponse(t.Result.Name, t.Result.Payload)
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents
}

func functionDeclarations(defs []domain.FunctionDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  parameterSchema(def.Parameters),
		})
	}
	return decls
}

func parameterSchema(params map[string]domain.ParamSpec) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(params)),
	}
	for name, p := range params {
		prop := &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Description,
		}
		if len(p.Enum) > 0 {
			prop.Enum = p.Enum
		}
		if p.Type == domain.TypeArray && p.Items != "" {
			prop.Items = &genai.Schema{Type: genaiType(p.Items)}
		}
		schema.Properties[name] = prop
		if p.Required {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

func genaiType(t domain.ParamType) genai.Type {
	switch t {
	case domain.TypeString:
		return genai.TypeString
	case domain.TypeNumber:
		return genai.TypeNumber
	case domain.TypeInteger:
		return genai.TypeInteger
	case domain.TypeBoolean:
		return genai.TypeBoolean
	case domain.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}
