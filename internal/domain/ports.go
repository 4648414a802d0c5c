package domain

import (
	"context"
	"time"
)

// ChatModel drives the conversational loop. A response is a tagged
// variant: either a final answer (Calls empty) or a batch of requested
// function calls.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ChatRequest carries the full transcript plus the registry's definitions
// so the set of callable operations is deterministic across calls.
type ChatRequest struct {
	System    string
	Turns     []Turn
	Functions []FunctionDefinition
}

// ChatResponse is the decoded model output.
type ChatResponse struct {
	Text  string
	Calls []FunctionCall
}

// IsFinal reports whether the model produced a final natural-language
// answer rather than requesting functions.
func (r ChatResponse) IsFinal() bool {
	return len(r.Calls) == 0
}

// TextModel is the narrower surface the mock backend needs: one free-form
// generation per simulated call.
type TextModel interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Backend answers validated function calls. The mock simulator and the
// GraphQL passthrough both implement it. A failed simulation is reported
// through the result (Failed=true), not through the error; the error is
// reserved for faults the caller may want to convert itself.
type Backend interface {
	Execute(ctx context.Context, call FunctionCall, simCtx SimulationContext) (FunctionResult, error)
}

// SessionStore holds transcripts keyed by session identifier. Per-session
// operations are linearizable: concurrent appends to the same session do
// not interleave. Every accessor re-creates a missing session because an
// evicted session mid-request is recoverable by definition.
type SessionStore interface {
	// GetOrCreate returns a snapshot of the session, creating it on
	// first contact.
	GetOrCreate(id SessionID) Session
	// Peek returns a snapshot without creating, ErrSessionNotFound when
	// absent.
	Peek(id SessionID) (Session, error)
	// AppendTurns appends turns in order and folds any function results
	// into the simulation context under the same lock.
	AppendTurns(id SessionID, turns ...Turn)
	// ContextFor returns a snapshot of the simulation context.
	ContextFor(id SessionID) SimulationContext
	// Evict removes the session. In-flight requests observe "not found"
	// and recreate.
	Evict(id SessionID)
}

// AuditEntry records one simulated (or passed-through) call/result pair.
// The audit trail is part of the simulator contract.
type AuditEntry struct {
	SessionID SessionID
	CallID    string
	Function  string
	Arguments map[string]any
	Result    string // truncated payload
	Failed    bool
	CreatedAt time.Time
}

// AuditLog persists audit entries.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// TranscriptArchive durably stores turns outside the in-memory session
// store. Archival is best-effort and never blocks a conversation.
type TranscriptArchive interface {
	SaveTurns(ctx context.Context, id SessionID, turns []Turn) error
	// Turns reads back the archived transcript in order. limit <= 0 means
	// no limit. Returns ErrSessionNotFound when nothing was archived.
	Turns(ctx context.Context, id SessionID, limit int) ([]Turn, error)
}
