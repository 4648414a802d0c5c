package simulator_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/talentops/recruiter-agent/internal/adapters/llm"
	"github.com/talentops/recruiter-agent/internal/app/simulator"
	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/registry"
)

type capturingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *capturingAudit) Record(ctx context.Context, entry domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func newSimulator(t *testing.T, model domain.TextModel) (*simulator.Simulator, *capturingAudit) {
	t.Helper()

	reg, err := registry.NewATS()
	if err != nil {
		t.Fatalf("NewATS failed: %v", err)
	}
	audit := &capturingAudit{}
	return simulator.New(model, reg, audit), audit
}

func TestExecuteStripsMarkdownFences(t *testing.T) {
	model := llm.NewScripted()
	model.QueueText("```json\n{\"jobs\": [{\"id\": \"job-1\", \"title\": \"Go Engineer\"}]}\n```")

	sim, audit := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{"status": "OPEN"},
	}, domain.SimulationContext{SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Failed {
		t.Fatalf("expected success, got failure: %s", res.Error)
	}
	jobs, ok := res.Payload["jobs"].([]any)
	if !ok || len(jobs) != 1 {
		t.Fatalf("expected one job in payload, got %#v", res.Payload["jobs"])
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.SessionID != "sess-1" || entry.Function != "getJobs" || entry.Failed {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestExecuteStripsUndeclaredFields(t *testing.T) {
	model := llm.NewScripted()
	model.QueueText(`{"jobs": [], "secretDebugInfo": "should not survive"}`)

	sim, _ := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{},
	}, domain.SimulationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Failed {
		t.Fatalf("expected success, got failure: %s", res.Error)
	}
	if _, leaked := res.Payload["secretDebugInfo"]; leaked {
		t.Fatalf("undeclared field survived shape repair")
	}
}

func TestExecuteRetriesOnceWithStricterPrompt(t *testing.T) {
	model := llm.NewScripted()
	model.QueueText(
		"Sure! Here is the data you asked for.", // not JSON
		`{"jobs": []}`,
	)

	sim, _ := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{},
	}, domain.SimulationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Failed {
		t.Fatalf("expected the retry to recover, got failure: %s", res.Error)
	}
	if len(model.TextPrompts) != 2 {
		t.Fatalf("expected exactly 2 generation attempts, got %d", len(model.TextPrompts))
	}
}

func TestExecuteFailsClosedAfterRetry(t *testing.T) {
	model := llm.NewScripted()
	model.QueueText("still not json", "also not json")

	sim, audit := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{},
	}, domain.SimulationContext{})
	if err != nil {
		t.Fatalf("Execute must not error on bad generations: %v", err)
	}
	if !res.Failed {
		t.Fatalf("expected a failed result")
	}
	if !strings.Contains(res.Error, "simulation failed") {
		t.Fatalf("failure should carry the simulation error, got %q", res.Error)
	}
	if res.CallID != "call-1" || res.Name != "getJobs" {
		t.Fatalf("failed result must stay well-formed: %+v", res)
	}
	if len(audit.entries) != 1 || !audit.entries[0].Failed {
		t.Fatalf("failure must still be audited")
	}
}

func TestExecuteRejectsWrongFieldType(t *testing.T) {
	model := llm.NewScripted()
	// jobs is declared as an array; a string must fail both attempts.
	model.QueueText(`{"jobs": "none"}`, `{"jobs": "still none"}`)

	sim, _ := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{},
	}, domain.SimulationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Failed {
		t.Fatalf("expected a type clash to fail the simulation")
	}
}

func TestPromptCarriesKnownEntities(t *testing.T) {
	model := llm.NewScripted()
	model.QueueText(`{"jobs": []}`)

	sim, _ := newSimulator(t, model)

	simCtx := domain.SimulationContext{
		Entities: []domain.KnownEntity{{Kind: "job", ID: "job-42", Name: "Staff Engineer"}},
	}
	if _, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "getJobs", Arguments: map[string]any{},
	}, simCtx); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(model.TextPrompts) != 1 {
		t.Fatalf("expected one generation, got %d", len(model.TextPrompts))
	}
	prompt := model.TextPrompts[0]
	if !strings.Contains(prompt, "job-42") || !strings.Contains(prompt, "Staff Engineer") {
		t.Fatalf("known entities missing from the prompt:\n%s", prompt)
	}
}

func TestUnknownFunctionIsAuditedAsFailure(t *testing.T) {
	model := llm.NewScripted()
	sim, audit := newSimulator(t, model)

	res, err := sim.Execute(context.Background(), domain.FunctionCall{
		ID: "call-1", Name: "dropAllTables", Arguments: map[string]any{},
	}, domain.SimulationContext{})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Failed {
		t.Fatalf("expected failure for unknown function")
	}
	if len(model.TextPrompts) != 0 {
		t.Fatalf("unknown function must not reach the model")
	}
	if len(audit.entries) != 1 || !audit.entries[0].Failed {
		t.Fatalf("rejection must be audited")
	}
}
