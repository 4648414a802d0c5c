package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/talentops/recruiter-agent/internal/app/conversation"
	"github.com/talentops/recruiter-agent/internal/domain"
)

type Server struct {
	svc *conversation.Service
}

// NewServer builds the routed handler with the standard middleware
// chain. An empty signing key disables authentication.
func NewServer(svc *conversation.Service, jwtSigningKey string) http.Handler {
	s := &Server{svc: svc}
	mux := http.NewServeMux()

	// /chat           → POST: send a message (new or existing session)
	mux.HandleFunc("/chat", s.handleChat)

	// /sessions/{id}  → GET: full transcript
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	mux.HandleFunc("/healthz", s.handleHealth)

	return chainMiddlewares(mux,
		withJWT(jwtSigningKey),
		withCORS,
		withLogging,
		withRequestID,
	)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

type turnResponse struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Text      string         `json:"text,omitempty"`
	Function  string         `json:"function,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Failed    bool           `json:"failed,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type getSessionResponse struct {
	SessionID    string         `json:"session_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastResponse string         `json:"last_response,omitempty"`
	Turns        []turnResponse `json:"turns"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSendMessage(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id}
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" || strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetSession(w, r, domain.SessionID(path))
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	out, err := s.svc.Chat(r.Context(), conversation.ChatInput{
		SessionID: domain.SessionID(req.SessionID),
		Message:   req.Message,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: string(out.SessionID),
		Response:  out.Response,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	sess, err := s.svc.Transcript(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getSessionResponse{
		SessionID:    string(sess.ID),
		CreatedAt:    sess.CreatedAt,
		UpdatedAt:    sess.UpdatedAt,
		LastResponse: sess.LastAssistantText(),
		Turns:        toTurnsResponse(sess.Turns),
	})
}

// ─────────────────────────────────────────────
// Conversion helpers
// ─────────────────────────────────────────────

func toTurnResponse(t domain.Turn) turnResponse {
	out := turnResponse{
		ID:        string(t.ID),
		Role:      string(t.Role),
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
	}
	if t.Call != nil {
		out.Function = t.Call.Name
		out.Arguments = t.Call.Arguments
	}
	if t.Result != nil {
		out.Function = t.Result.Name
		out.Payload = t.Result.Payload
		out.Failed = t.Result.Failed
		out.Error = t.Result.Error
	}
	return out
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toTurnResponse(t))
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
