package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	httpadapter "github.com/talentops/recruiter-agent/internal/adapters/http"
	"github.com/talentops/recruiter-agent/internal/adapters/llm"
	memstore "github.com/talentops/recruiter-agent/internal/adapters/storage/memory"
	"github.com/talentops/recruiter-agent/internal/app/agentloop"
	"github.com/talentops/recruiter-agent/internal/app/conversation"
	"github.com/talentops/recruiter-agent/internal/app/simulator"
	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/registry"
)

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, entry domain.AuditEntry) error { return nil }

func newTestServer(t *testing.T, model *llm.Scripted, jwtKey string) http.Handler {
	t.Helper()

	reg, err := registry.NewATS()
	if err != nil {
		t.Fatalf("NewATS failed: %v", err)
	}
	store := memstore.NewSessionStore()
	t.Cleanup(store.Close)

	backend := simulator.New(model, reg, nopAudit{})
	loop := agentloop.New(model, backend, store, reg, agentloop.Config{})
	svc := conversation.NewService(loop, store, nil)

	return httpadapter.NewServer(svc, jwtKey)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, llm.NewScripted(), "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestChatOpenJobsScenario(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Calls: []domain.FunctionCall{
			{Name: "getJobs", Arguments: map[string]any{"status": "OPEN"}},
		}},
		domain.ChatResponse{Text: "There are currently 2 open positions: Go Engineer and SRE."},
	)
	model.QueueText(`{"jobs": [{"id": "job-1", "title": "Go Engineer"}, {"id": "job-2", "title": "SRE"}]}`)

	srv := newTestServer(t, model, "")

	body, _ := json.Marshal(map[string]string{"message": "Show me all open job positions"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Response  string `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatalf("expected a fresh session id")
	}
	if resp.Response == "" {
		t.Fatalf("expected a non-empty answer")
	}

	// The transcript endpoint must expose the full trace.
	req = httptest.NewRequest(http.MethodGet, "/sessions/"+resp.SessionID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for transcript, got %d", w.Code)
	}
	var transcript struct {
		LastResponse string `json:"last_response"`
		Turns        []struct {
			Role string `json:"role"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(transcript.Turns) != 4 {
		t.Fatalf("expected user/call/result/assistant turns, got %d", len(transcript.Turns))
	}
	if transcript.LastResponse != "There are currently 2 open positions: Go Engineer and SRE." {
		t.Fatalf("unexpected last_response: %q", transcript.LastResponse)
	}
}

func TestChatContinuesExistingSession(t *testing.T) {
	model := llm.NewScripted()
	model.QueueResponse(
		domain.ChatResponse{Text: "Created."},
		domain.ChatResponse{Text: "Still here."},
	)

	srv := newTestServer(t, model, "")

	body, _ := json.Marshal(map[string]string{"message": "hello"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var first struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	body, _ = json.Marshal(map[string]string{"session_id": first.SessionID, "message": "again"})
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var second struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed between turns: %s vs %s", first.SessionID, second.SessionID)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t, llm.NewScripted(), "")

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"message": "  "}`)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	srv := newTestServer(t, llm.NewScripted(), "")

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestJWTGuardsChat(t *testing.T) {
	const key = "test-signing-key"
	srv := newTestServer(t, llm.NewScripted(), key)

	body := []byte(`{"message": "hello"}`)

	// No token → 401.
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Token signed with the wrong key → 401.
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "recruiter"}).SignedString([]byte("wrong"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+bad)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", w.Code)
	}

	// Valid token → handled.
	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "recruiter"}).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+good)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", w.Code, w.Body.String())
	}

	// Health stays open.
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz must not require auth, got %d", w.Code)
	}
}
