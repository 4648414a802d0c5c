// Package simulator fabricates ATS backend responses with a secondary
// model call. The generated output is treated as untrusted: it is parsed,
// validated against the function's declared result shape, repaired where
// possible, and regenerated once with a stricter prompt before giving up.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/observability"
	"github.com/talentops/recruiter-agent/internal/registry"
)

const auditResultLimit = 2048

type Simulator struct {
	model    domain.TextModel
	registry *registry.Registry
	audit    domain.AuditLog
	limiter  *rate.Limiter

	// simulateDelay adds jitter so the mock behaves like a remote API.
	simulateDelay bool
	now           func() time.Time
}

type Option func(*Simulator)

// WithDelay enables the artificial latency toggle.
func WithDelay() Option {
	return func(s *Simulator) { s.simulateDelay = true }
}

// WithRateLimit caps secondary model calls per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Simulator) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func New(model domain.TextModel, reg *registry.Registry, audit domain.AuditLog, opts ...Option) *Simulator {
	s := &Simulator{
		model:    model,
		registry: reg,
		audit:    audit,
		limiter:  rate.NewLimiter(rate.Limit(5), 10),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute fabricates one response for a validated call. Failures come
// back as a well-formed result with Failed=true so the conversation can
// continue; the error return is reserved for context cancellation.
func (s *Simulator) Execute(ctx context.Context, call domain.FunctionCall, simCtx domain.SimulationContext) (domain.FunctionResult, error) {
	log := observability.LoggerFromContext(ctx).With("function", call.Name, "call_id", call.ID)

	def, err := s.registry.Resolve(call.Name)
	if err != nil {
		res := failedResult(call, err.Error())
		s.record(ctx, simCtx.SessionID, call, res)
		return res, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return domain.FunctionResult{}, err
	}
	if s.simulateDelay {
		sleepJitter(ctx)
	}

	args, _ := json.MarshalIndent(call.Arguments, "", "  ")
	log.Info("simulating backend call", "arguments", string(args))

	payload, genErr := s.generate(ctx, def, call, simCtx, false)
	if genErr != nil {
		if ctx.Err() != nil {
			return domain.FunctionResult{}, ctx.Err()
		}
		// One retry with a stricter regeneration prompt.
		log.Warn("regenerating mock response", "error", genErr)
		payload, genErr = s.generate(ctx, def, call, simCtx, true)
	}

	var res domain.FunctionResult
	if genErr != nil {
		if ctx.Err() != nil {
			return domain.FunctionResult{}, ctx.Err()
		}
		res = failedResult(call, fmt.Sprintf("%v: %v", domain.ErrSimulationFailed, genErr))
		log.Error("simulation failed", "error", genErr)
	} else {
		res = domain.FunctionResult{CallID: call.ID, Name: call.Name, Payload: payload}
		log.Info("simulated backend response", "result", truncate(mustJSON(payload), auditResultLimit))
	}

	s.record(ctx, simCtx.SessionID, call, res)
	return res, nil
}

func (s *Simulator) generate(ctx context.Context, def domain.FunctionDefinition, call domain.FunctionCall, simCtx domain.SimulationContext, strict bool) (map[string]any, error) {
	system := systemPrompt
	if strict {
		system = strictSystemPrompt
	}

	raw, err := s.model.GenerateText(ctx, system, buildPrompt(def, call, simCtx))
	if err != nil {
		return nil, fmt.Errorf("generate mock response: %w", err)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	return repair(def.Returns, payload)
}

func (s *Simulator) record(ctx context.Context, sessionID domain.SessionID, call domain.FunctionCall, res domain.FunctionResult) {
	result := res.Error
	if !res.Failed {
		result = truncate(mustJSON(res.Payload), auditResultLimit)
	}
	entry := domain.AuditEntry{
		SessionID: sessionID,
		CallID:    call.ID,
		Function:  call.Name,
		Arguments: call.Arguments,
		Result:    result,
		Failed:    res.Failed,
		CreatedAt: s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		observability.LoggerFromContext(ctx).Error("audit record failed", "error", err, "call_id", call.ID)
	}
}

// decodePayload extracts the JSON object from a raw completion, stripping
// markdown code fences the model tends to wrap it in.
func decodePayload(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}
	text = strings.TrimSpace(text)

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("mock output is not a JSON object: %w", err)
	}
	return payload, nil
}

// repair enforces the declared result shape: undeclared top-level fields
// are stripped, declared fields with wrong types fail validation.
func repair(shape map[string]domain.FieldSpec, payload map[string]any) (map[string]any, error) {
	if shape == nil {
		return payload, nil
	}
	out := make(map[string]any, len(shape))
	for name, spec := range shape {
		val, ok := payload[name]
		if !ok {
			continue
		}
		if !typeMatches(spec, val) {
			return nil, fmt.Errorf("field %q does not match declared type %q", name, spec.Type)
		}
		out[name] = val
	}
	return out, nil
}

func typeMatches(spec domain.FieldSpec, val any) bool {
	switch spec.Type {
	case domain.TypeString:
		_, ok := val.(string)
		return ok
	case domain.TypeNumber:
		switch val.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case domain.TypeInteger:
		switch n := val.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	case domain.TypeBoolean:
		_, ok := val.(bool)
		return ok
	case domain.TypeArray:
		items, ok := val.([]any)
		if !ok {
			return false
		}
		if spec.Items == "" {
			return true
		}
		for _, item := range items {
			if !typeMatches(domain.FieldSpec{Type: spec.Items}, item) {
				return false
			}
		}
		return true
	case domain.TypeObject:
		_, ok := val.(map[string]any)
		return ok
	}
	return false
}

func failedResult(call domain.FunctionCall, msg string) domain.FunctionResult {
	return domain.FunctionResult{
		CallID: call.ID,
		Name:   call.Name,
		Failed: true,
		Error:  msg,
		Payload: map[string]any{
			"error":    msg,
			"function": call.Name,
		},
	}
}

func sleepJitter(ctx context.Context) {
	delay := time.Duration(100+rand.Intn(300)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
