package agentloop_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/talentops/recruiter-agent/internal/adapters/llm"
	memstore "github.com/talentops/recruiter-agent/internal/adapters/storage/memory"
	"github.com/talentops/recruiter-agent/internal/app/agentloop"
	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/registry"
)

// stubBackend answers calls from a fixed payload table, optionally
// delaying per function to exercise the ordering guarantee.
type stubBackend struct {
	mu       sync.Mutex
	payloads map[string]map[string]any
	delays   map[string]time.Duration
	executed []string
}

func (b *stubBackend) Execute(ctx context.Context, call domain.FunctionCall, _ domain.SimulationContext) (domain.FunctionResult, error) {
	if d, ok := b.delays[call.Name]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return domain.FunctionResult{}, ctx.Err()
		}
	}
	b.mu.Lock()
	b.executed = append(b.executed, call.Name)
	b.mu.Unlock()

	payload, ok := b.payloads[call.Name]
	if !ok {
		payload = map[string]any{"ok": true}
	}
	return domain.FunctionResult{CallID: call.ID, Name: call.Name, Payload: payload}, nil
}

// failingModel always errors, standing in for an unreachable provider.
type failingModel struct{ calls int }

func (m *failingModel) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	m.calls++
	return domain.ChatResponse{}, errors.New("connection refused")
}

func newLoop(t *testing.T, model domain.ChatModel, backend domain.Backend, cfg agentloop.Config) (*agentloop.Loop, *memstore.SessionStore) {
	t.Helper()

	reg, err := registry.NewATS()
	if err != nil {
		t.Fatalf("NewATS failed: %v", err)
	}
	store := memstore.NewSessionStore()
	t.Cleanup(store.Close)
	return agentloop.New(model, backend, store, reg, cfg), store
}

func TestFinalAnswerWithoutFunctionCalls(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(domain.ChatResponse{Text: "Hello! How can I help with hiring today?"})

	loop, store := newLoop(t, model, &stubBackend{}, agentloop.Config{})

	reply, id, err := loop.HandleMessage(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a generated session id")
	}
	if reply != "Hello! How can I help with hiring today?" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	sess, err := store.Peek(id)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if len(sess.Turns) != 2 {
		t.Fatalf("expected user + assistant turns, got %d", len(sess.Turns))
	}
	if sess.Turns[0].Role != domain.RoleUser || sess.Turns[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected transcript roles: %v %v", sess.Turns[0].Role, sess.Turns[1].Role)
	}
}

func TestFunctionRoundTrip(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Calls: []domain.FunctionCall{
			{Name: "getJobs", Arguments: map[string]any{"status": "OPEN"}},
		}},
		domain.ChatResponse{Text: "There are 2 open roles."},
	)
	backend := &stubBackend{payloads: map[string]map[string]any{
		"getJobs": {"jobs": []any{map[string]any{"id": "job-1"}, map[string]any{"id": "job-2"}}},
	}}

	loop, store := newLoop(t, model, backend, agentloop.Config{})

	reply, id, err := loop.HandleMessage(context.Background(), "sess-1", "show me open roles")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply != "There are 2 open roles." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	sess, err := store.Peek(id)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	roles := []domain.Role{domain.RoleUser, domain.RoleFunctionCall, domain.RoleFunctionResult, domain.RoleAssistant}
	if len(sess.Turns) != len(roles) {
		t.Fatalf("expected %d turns, got %d", len(roles), len(sess.Turns))
	}
	for i, want := range roles {
		if sess.Turns[i].Role != want {
			t.Fatalf("turn %d: expected role %s, got %s", i, want, sess.Turns[i].Role)
		}
	}
	if sess.Turns[1].Call == nil || sess.Turns[2].Result == nil {
		t.Fatalf("call/result turns missing payloads")
	}
	if sess.Turns[2].Result.CallID != sess.Turns[1].Call.ID {
		t.Fatalf("result is not paired with its call")
	}

	// The second model request must contain the function result.
	second := model.ChatRequests[1]
	found := false
	for _, turn := range second.Turns {
		if turn.Role == domain.RoleFunctionResult {
			found = true
		}
	}
	if !found {
		t.Fatalf("function result was not fed back to the model")
	}
}

func TestParallelCallsKeepRequestOrder(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Calls: []domain.FunctionCall{
			{Name: "getJobs", Arguments: map[string]any{}},
			{Name: "getTeams", Arguments: map[string]any{}},
		}},
		domain.ChatResponse{Text: "done"},
	)
	// The first requested call finishes last.
	backend := &stubBackend{delays: map[string]time.Duration{"getJobs": 50 * time.Millisecond}}

	loop, store := newLoop(t, model, backend, agentloop.Config{})

	_, id, err := loop.HandleMessage(context.Background(), "", "compare staffing")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	sess, err := store.Peek(id)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	// user, call, result, call, result, assistant
	if len(sess.Turns) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(sess.Turns))
	}
	if sess.Turns[1].Call.Name != "getJobs" || sess.Turns[3].Call.Name != "getTeams" {
		t.Fatalf("calls not in request order: %s, %s", sess.Turns[1].Call.Name, sess.Turns[3].Call.Name)
	}
	if sess.Turns[2].Result.CallID != sess.Turns[1].Call.ID || sess.Turns[4].Result.CallID != sess.Turns[3].Call.ID {
		t.Fatalf("results not paired with their calls")
	}
}

func TestUnknownFunctionDoesNotAbortTurn(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Calls: []domain.FunctionCall{
			{Name: "launchRocket", Arguments: map[string]any{}},
		}},
		domain.ChatResponse{Text: "Sorry, I can't do that."},
	)
	backend := &stubBackend{}

	loop, store := newLoop(t, model, backend, agentloop.Config{})

	reply, id, err := loop.HandleMessage(context.Background(), "", "launch the rocket")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if reply != "Sorry, I can't do that." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(backend.executed) != 0 {
		t.Fatalf("backend must not be reached for unknown functions, got %v", backend.executed)
	}

	sess, _ := store.Peek(id)
	var result *domain.FunctionResult
	for _, turn := range sess.Turns {
		if turn.Role == domain.RoleFunctionResult {
			result = turn.Result
		}
	}
	if result == nil || !result.Failed {
		t.Fatalf("expected a failed result turn for the unknown function")
	}
	if !strings.Contains(result.Error, "unknown function") {
		t.Fatalf("result should explain the rejection, got %q", result.Error)
	}
}

func TestInvalidArgumentsRejectedBeforeDispatch(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Calls: []domain.FunctionCall{
			{Name: "getJob", Arguments: map[string]any{}}, // id missing
		}},
		domain.ChatResponse{Text: "I need a job id."},
	)
	backend := &stubBackend{}

	loop, _ := newLoop(t, model, backend, agentloop.Config{})

	if _, _, err := loop.HandleMessage(context.Background(), "", "open that job"); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if len(backend.executed) != 0 {
		t.Fatalf("backend must not be reached for invalid arguments")
	}
}

func TestRoundLimitProducesReadableAnswer(t *testing.T) {
	model := llm.NewScripted()
	call := domain.ChatResponse{Calls: []domain.FunctionCall{
		{Name: "getJobs", Arguments: map[string]any{}},
	}}
	// The model keeps asking for more lookups forever.
	model.QueueResponse(call, call, call, call, call)

	loop, store := newLoop(t, model, &stubBackend{}, agentloop.Config{MaxRounds: 2})

	reply, id, err := loop.HandleMessage(context.Background(), "", "audit every pipeline")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "stop") {
		t.Fatalf("expected an explanatory round-limit answer, got %q", reply)
	}

	sess, _ := store.Peek(id)
	last := sess.Turns[len(sess.Turns)-1]
	if last.Role != domain.RoleAssistant || last.Text != reply {
		t.Fatalf("round-limit answer must be committed to the transcript")
	}
	// Two executed rounds: user + 2*(call+result) + assistant.
	if len(sess.Turns) != 6 {
		t.Fatalf("expected exactly 2 dispatched rounds, transcript has %d turns", len(sess.Turns))
	}
}

func TestModelFailureReturnsApology(t *testing.T) {
	model := &failingModel{}
	loop, store := newLoop(t, model, &stubBackend{}, agentloop.Config{
		Retries:      2,
		RetryBackoff: time.Millisecond,
	})

	reply, id, err := loop.HandleMessage(context.Background(), "", "hello?")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "unavailable") {
		t.Fatalf("expected an unavailable message, got %q", reply)
	}
	if model.calls != 3 {
		t.Fatalf("expected initial attempt plus 2 retries, got %d calls", model.calls)
	}

	sess, _ := store.Peek(id)
	last := sess.Turns[len(sess.Turns)-1]
	if last.Role != domain.RoleAssistant || last.Text != reply {
		t.Fatalf("unavailable answer must be committed to the transcript")
	}
}

func TestNegativeRetriesDisablesRetrying(t *testing.T) {
	model := &failingModel{}
	loop, _ := newLoop(t, model, &stubBackend{}, agentloop.Config{
		Retries:      -1,
		RetryBackoff: time.Millisecond,
	})

	reply, _, err := loop.HandleMessage(context.Background(), "", "hello?")
	if err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if !strings.Contains(reply, "unavailable") {
		t.Fatalf("expected an unavailable message, got %q", reply)
	}
	if model.calls != 1 {
		t.Fatalf("expected a single attempt with retries disabled, got %d calls", model.calls)
	}
}

func TestCallerCancellationSurfaces(t *testing.T) {
	model := &failingModel{}
	loop, _ := newLoop(t, model, &stubBackend{}, agentloop.Config{
		Retries:      1,
		RetryBackoff: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := loop.HandleMessage(ctx, "", "hello?")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
