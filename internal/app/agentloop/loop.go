// Package agentloop drives one user message through the conversational
// model: think, execute any requested function calls against the backend,
// feed the results back, and repeat until a final answer or the round cap.
package agentloop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/observability"
	"github.com/talentops/recruiter-agent/internal/registry"
)

const (
	// DefaultMaxRounds bounds function-call rounds per user message. An
	// unbounded loop risks runaway cost if the model keeps requesting
	// functions.
	DefaultMaxRounds = 4

	DefaultCallTimeout  = 45 * time.Second
	DefaultRetries      = 2
	DefaultRetryBackoff = 500 * time.Millisecond
)

const unavailableMessage = "The agent is temporarily unavailable. Please try again in a moment."

const roundLimitMessage = "I had to stop before finishing: this request needed more backend lookups " +
	"than I am allowed in a single turn. The results gathered so far are in the conversation; " +
	"please ask a narrower follow-up question."

type Config struct {
	MaxRounds   int
	CallTimeout time.Duration
	// Retries is the number of extra model attempts after a failure.
	// Zero means DefaultRetries; negative disables retries.
	Retries      int
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	} else if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}

type Loop struct {
	model    domain.ChatModel
	backend  domain.Backend
	store    domain.SessionStore
	registry *registry.Registry
	cfg      Config
	now      func() time.Time
	newID    func() string
}

func New(model domain.ChatModel, backend domain.Backend, store domain.SessionStore, reg *registry.Registry, cfg Config) *Loop {
	return &Loop{
		model:    model,
		backend:  backend,
		store:    store,
		registry: reg,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// HandleMessage runs the state machine for one user message and returns
// the final answer plus the session identifier (fresh when none was
// supplied). Model and backend failures never escape as errors; they
// surface as readable assistant turns. The only error returned is the
// caller's own context cancellation before a final answer was committed.
func (l *Loop) HandleMessage(ctx context.Context, id domain.SessionID, message string) (string, domain.SessionID, error) {
	if id == "" {
		id = domain.SessionID(l.newID())
	}
	log := observability.LoggerFromContext(ctx).With("session_id", id)

	l.store.GetOrCreate(id)
	l.store.AppendTurns(id, l.newTurn(id, domain.RoleUser, message))

	for round := 0; ; round++ {
		resp, err := l.think(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return "", id, ctx.Err()
			}
			log.Error("model unavailable", "error", err, "round", round)
			l.store.AppendTurns(id, l.newTurn(id, domain.RoleAssistant, unavailableMessage))
			return unavailableMessage, id, nil
		}

		if resp.IsFinal() {
			l.store.AppendTurns(id, l.newTurn(id, domain.RoleAssistant, resp.Text))
			log.Info("turn complete", "rounds", round)
			return resp.Text, id, nil
		}

		if round >= l.cfg.MaxRounds {
			log.Warn("function round limit reached", "limit", l.cfg.MaxRounds)
			l.store.AppendTurns(id, l.newTurn(id, domain.RoleAssistant, roundLimitMessage))
			return roundLimitMessage, id, nil
		}

		l.store.AppendTurns(id, l.executeBatch(ctx, id, resp.Calls)...)
	}
}

// think invokes the conversational model with the full transcript and the
// registry's definitions, retrying with backoff on transient failures.
func (l *Loop) think(ctx context.Context, id domain.SessionID) (domain.ChatResponse, error) {
	sess := l.store.GetOrCreate(id)
	req := domain.ChatRequest{
		System:    systemPrompt,
		Turns:     sess.Turns,
		Functions: l.registry.Definitions(),
	}

	var lastErr error
	backoff := l.cfg.RetryBackoff
	for attempt := 0; attempt <= l.cfg.Retries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
		resp, err := l.model.Complete(callCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		observability.LoggerFromContext(ctx).Warn("model call failed",
			"session_id", id, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		backoff *= 2
	}
	return domain.ChatResponse{}, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, lastErr)
}

// executeBatch dispatches one round of calls. Valid calls run in parallel
// against the backend; the returned turns preserve the order the model
// requested them, each call immediately followed by its result. Dispatch
// uses a detached context so an adapter disconnect cannot leave a call
// turn without a matching result turn.
func (l *Loop) executeBatch(ctx context.Context, id domain.SessionID, calls []domain.FunctionCall) []domain.Turn {
	simCtx := l.store.ContextFor(id)
	results := make([]domain.FunctionResult, len(calls))

	base := context.WithoutCancel(ctx)
	g := new(errgroup.Group)
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = l.newID()
		}
		call := calls[i]

		if res, ok := l.rejectInvalid(ctx, call); ok {
			results[i] = res
			continue
		}

		i := i
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(base, l.cfg.CallTimeout)
			defer cancel()
			res, err := l.backend.Execute(callCtx, call, simCtx.Clone())
			if err != nil {
				res = domain.FunctionResult{
					CallID: call.ID,
					Name:   call.Name,
					Failed: true,
					Error:  fmt.Sprintf("%v: %v", domain.ErrSimulationFailed, err),
					Payload: map[string]any{
						"error":    err.Error(),
						"function": call.Name,
					},
				}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	turns := make([]domain.Turn, 0, 2*len(calls))
	for i, call := range calls {
		callTurn := l.newTurn(id, domain.RoleFunctionCall, "")
		callTurn.Call = &domain.FunctionCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments}
		resultTurn := l.newTurn(id, domain.RoleFunctionResult, "")
		res := results[i]
		resultTurn.Result = &res
		turns = append(turns, callTurn, resultTurn)
	}
	return turns
}

// rejectInvalid converts unknown-function and bad-argument calls into
// explanatory results so the model can self-correct instead of the turn
// aborting.
func (l *Loop) rejectInvalid(ctx context.Context, call domain.FunctionCall) (domain.FunctionResult, bool) {
	def, err := l.registry.Resolve(call.Name)
	if err == nil {
		err = l.registry.ValidateArgs(def, call.Arguments)
	}
	if err == nil {
		return domain.FunctionResult{}, false
	}

	observability.LoggerFromContext(ctx).Warn("rejected function call",
		"function", call.Name, "call_id", call.ID, "error", err)
	return domain.FunctionResult{
		CallID: call.ID,
		Name:   call.Name,
		Failed: true,
		Error:  err.Error(),
		Payload: map[string]any{
			"error":    err.Error(),
			"function": call.Name,
			"hint":     "use one of the declared functions with arguments matching its schema",
		},
	}, true
}

func (l *Loop) newTurn(id domain.SessionID, role domain.Role, text string) domain.Turn {
	return domain.Turn{
		ID:        domain.TurnID(l.newID()),
		SessionID: id,
		Role:      role,
		Text:      text,
		CreatedAt: l.now(),
	}
}
