package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/talentops/recruiter-agent/internal/app/agentloop"
	"github.com/talentops/recruiter-agent/internal/domain"
	"github.com/talentops/recruiter-agent/internal/observability"
)

// Service fronts the agent loop for the transport adapters and archives
// finished turns.
type Service struct {
	loop    *agentloop.Loop
	store   domain.SessionStore
	archive domain.TranscriptArchive
	now     func() time.Time
}

func NewService(loop *agentloop.Loop, store domain.SessionStore, archive domain.TranscriptArchive) *Service {
	return &Service{
		loop:    loop,
		store:   store,
		archive: archive,
		now:     time.Now,
	}
}

type ChatInput struct {
	SessionID domain.SessionID // empty starts a new session
	Message   string
}

type ChatOutput struct {
	SessionID domain.SessionID
	Response  string
}

func (s *Service) Chat(ctx context.Context, in ChatInput) (*ChatOutput, error) {
	if in.SessionID != "" {
		ctx = observability.WithSessionID(ctx, string(in.SessionID))
	}
	observability.LoggerFromContext(ctx).Info("handling chat message")

	var before int
	if in.SessionID != "" {
		if sess, err := s.store.Peek(in.SessionID); err == nil {
			before = len(sess.Turns)
		}
	}

	reply, sessionID, err := s.loop.HandleMessage(ctx, in.SessionID, in.Message)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("agent loop failed", "error", err)
		return nil, err
	}

	ctx = observability.WithSessionID(ctx, string(sessionID))
	s.archiveNewTurns(ctx, sessionID, before)

	observability.LoggerFromContext(ctx).Info("chat completed")

	return &ChatOutput{
		SessionID: sessionID,
		Response:  reply,
	}, nil
}

// Transcript returns the transcript for a session, falling back to the
// archive when the in-memory session was already evicted.
func (s *Service) Transcript(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	sess, err := s.store.Peek(id)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		observability.LoggerFromContext(ctx).Error("failed to load transcript",
			"session_id", id, "error", err)
		return domain.Session{}, err
	}
	if s.archive == nil {
		return domain.Session{}, err
	}

	turns, archErr := s.archive.Turns(ctx, id, 0)
	if archErr != nil {
		if errors.Is(archErr, domain.ErrSessionNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		observability.LoggerFromContext(ctx).Error("failed to read archived transcript",
			"session_id", id, "error", archErr)
		return domain.Session{}, archErr
	}

	out := domain.Session{ID: id, Turns: turns}
	if len(turns) > 0 {
		out.CreatedAt = turns[0].CreatedAt
		out.UpdatedAt = turns[len(turns)-1].CreatedAt
	}
	return out, nil
}

// archiveNewTurns is best-effort: a failed archive write never fails the
// chat request.
func (s *Service) archiveNewTurns(ctx context.Context, id domain.SessionID, before int) {
	if s.archive == nil {
		return
	}
	sess, err := s.store.Peek(id)
	if err != nil {
		return
	}
	if before > len(sess.Turns) {
		before = 0 // session was evicted and recreated mid-request
	}
	fresh := sess.Turns[before:]
	if len(fresh) == 0 {
		return
	}
	if err := s.archive.SaveTurns(ctx, id, fresh); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to archive turns", "error", err)
	}
}
