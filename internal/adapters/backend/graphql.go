// Package backend provides an alternative to the simulated ATS: a thin
// GraphQL passthrough that posts each function's query document to a real
// Hasura-style endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/registry"
)

// GraphQL executes function calls against a live GraphQL endpoint instead
// of simulating them. Function arguments are passed as query variables.
type GraphQL struct {
	endpoint string
	headers  map[string]string
	registry *registry.Registry
	client   *http.Client
}

type GraphQLOption func(*GraphQL)

// WithHeader adds a static header to every request, e.g. an admin secret.
func WithHeader(key, value string) GraphQLOption {
	return func(g *GraphQL) {
		g.headers[key] = value
	}
}

func WithHTTPClient(client *http.Client) GraphQLOption {
	return func(g *GraphQL) {
		if client != nil {
			g.client = client
		}
	}
}

func NewGraphQL(endpoint string, reg *registry.Registry, opts ...GraphQLOption) *GraphQL {
	g := &GraphQL{
		endpoint: strings.TrimSpace(endpoint),
		headers:  map[string]string{},
		registry: reg,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ domain.Backend = (*GraphQL)(nil)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]any `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (g *GraphQL) Execute(ctx context.Context, call domain.FunctionCall, _ domain.SimulationContext) (domain.FunctionResult, error) {
	def, err := g.registry.Resolve(call.Name)
	if err != nil {
		return domain.FunctionResult{}, err
	}
	if strings.TrimSpace(def.GraphQL) == "" {
		return failed(call, fmt.Sprintf("%s has no query document and cannot run in passthrough mode", call.Name)), nil
	}

	body, err := json.Marshal(graphQLRequest{Query: def.GraphQL, Variables: call.Arguments})
	if err != nil {
		return domain.FunctionResult{}, fmt.Errorf("marshal graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.FunctionResult{}, fmt.Errorf("build graphql request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range g.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return domain.FunctionResult{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.FunctionResult{}, fmt.Errorf("read graphql response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.FunctionResult{}, fmt.Errorf("%w: graphql status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.FunctionResult{}, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return failed(call, parsed.Errors[0].Message), nil
	}

	return domain.FunctionResult{
		CallID:  call.ID,
		Name:    call.Name,
		Payload: parsed.Data,
	}, nil
}

func failed(call domain.FunctionCall, reason string) domain.FunctionResult {
	return domain.FunctionResult{
		CallID: call.ID,
		Name:   call.Name,
		Failed: true,
		Error:  reason,
	}
}
