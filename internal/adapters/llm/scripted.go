package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/talentops/recruiter-agent/internal/domain"
)

// Scripted is an in-memory model used in mock mode and in tests. Chat
// responses and simulator texts are consumed from queues in FIFO order;
// when a queue runs dry it falls back to a canned reply so the agent
// still terminates.
type Scripted struct {
	mu        sync.Mutex
	responses []domain.ChatResponse
	texts     []string

	// ChatRequests records every Complete call for assertions.
	ChatRequests []domain.ChatRequest
	// TextPrompts records every GenerateText prompt for assertions.
	TextPrompts []string
}

func NewScripted() *Scripted {
	return &Scripted{}
}

var (
	_ domain.ChatModel = (*Scripted)(nil)
	_ domain.TextModel = (*Scripted)(nil)
)

// QueueResponse appends chat responses to be returned, one per Complete
// call.
func (s *Scripted) QueueResponse(responses ...domain.ChatResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
}

// QueueText appends simulator texts to be returned, one per GenerateText
// call.
func (s *Scripted) QueueText(texts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, texts...)
}

func (s *Scripted) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ChatRequests = append(s.ChatRequests, req)
	if len(s.responses) == 0 {
		last := "there"
		for i := len(req.Turns) - 1; i >= 0; i-- {
			if req.Turns[i].Role == domain.RoleUser {
				last = req.Turns[i].Text
				break
			}
		}
		return domain.ChatResponse{
			Text: fmt.Sprintf("I heard you say %q. Tell me which role or candidate you want to work on.", last),
		}, nil
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	return next, nil
}

func (s *Scripted) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TextPrompts = append(s.TextPrompts, prompt)
	if len(s.texts) == 0 {
		return `{"id": "mock-1", "status": "ok"}`, nil
	}
	next := s.texts[0]
	s.texts = s.texts[1:]
	return next, nil
}
