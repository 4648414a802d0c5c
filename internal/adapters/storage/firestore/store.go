package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/talentops/recruiter-agent/internal/domain"
)

// Archive stores finished transcript turns durably, one document per
// turn under its session. The in-memory store stays the source of truth
// for live conversations; this is the history that survives eviction.
type Archive struct {
	client *firestore.Client
}

// NewArchive creates a Firestore-backed transcript archive.
// Uses the project passed (RECRUITER_GCP_PROJECT).
func NewArchive(ctx context.Context, projectID string) (*Archive, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore archive")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Archive{client: client}, nil
}

var _ domain.TranscriptArchive = (*Archive)(nil)

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (a *Archive) sessionsCol() *firestore.CollectionRef {
	return a.client.Collection("sessions")
}

func (a *Archive) sessionDocRef(id domain.SessionID) *firestore.DocumentRef {
	return a.sessionsCol().Doc(string(id))
}

func (a *Archive) turnsCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return a.sessionDocRef(sessionID).Collection("turns")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UpdatedAt time.Time `firestore:"updated_at"`
}

type turnDoc struct {
	SessionID string    `firestore:"session_id"`
	Role      string    `firestore:"role"`
	Text      string    `firestore:"text"`
	Function  string    `firestore:"function"`
	Arguments string    `firestore:"arguments"` // JSON
	Payload   string    `firestore:"payload"`   // JSON
	Failed    bool      `firestore:"failed"`
	Error     string    `firestore:"error"`
	CreatedAt time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// TranscriptArchive implementation
// ─────────────────────────────────────────

func (a *Archive) SaveTurns(ctx context.Context, id domain.SessionID, turns []domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	bw := a.client.BulkWriter(ctx)
	for _, t := range turns {
		doc := toTurnDoc(t)
		if _, err := bw.Set(a.turnsCol(id).Doc(string(t.ID)), doc); err != nil {
			return fmt.Errorf("firestore SaveTurns: %w", err)
		}
	}
	if _, err := bw.Set(a.sessionDocRef(id), sessionDoc{UpdatedAt: time.Now().UTC()}); err != nil {
		return fmt.Errorf("firestore SaveTurns: %w", err)
	}
	bw.End()
	return nil
}

// Turns returns the archived turns for one session in chronological
// order.
func (a *Archive) Turns(ctx context.Context, id domain.SessionID, limit int) ([]domain.Turn, error) {
	q := a.turnsCol(id).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []domain.Turn
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			if status.Code(err) == codes.NotFound {
				return nil, domain.ErrSessionNotFound
			}
			return nil, fmt.Errorf("firestore Turns: %w", err)
		}

		var doc turnDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode turnDoc: %w", err)
		}

		out = append(out, fromTurnDoc(snap.Ref.ID, id, doc))
	}
	if len(out) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return out, nil
}

func toTurnDoc(t domain.Turn) turnDoc {
	doc := turnDoc{
		SessionID: string(t.SessionID),
		Role:      string(t.Role),
		Text:      t.Text,
		CreatedAt: t.CreatedAt,
	}
	if t.Call != nil {
		doc.Function = t.Call.Name
		doc.Arguments = mustJSON(t.Call.Arguments)
	}
	if t.Result != nil {
		doc.Function = t.Result.Name
		doc.Payload = mustJSON(t.Result.Payload)
		doc.Failed = t.Result.Failed
		doc.Error = t.Result.Error
	}
	return doc
}

func fromTurnDoc(id string, sessionID domain.SessionID, doc turnDoc) domain.Turn {
	t := domain.Turn{
		ID:        domain.TurnID(id),
		SessionID: sessionID,
		Role:      domain.Role(doc.Role),
		Text:      doc.Text,
		CreatedAt: doc.CreatedAt,
	}
	switch t.Role {
	case domain.RoleFunctionCall:
		args := map[string]any{}
		_ = json.Unmarshal([]byte(doc.Arguments), &args)
		t.Call = &domain.FunctionCall{ID: id, Name: doc.Function, Arguments: args}
	case domain.RoleFunctionResult:
		payload := map[string]any{}
		_ = json.Unmarshal([]byte(doc.Payload), &payload)
		t.Result = &domain.FunctionResult{
			Name:    doc.Function,
			Payload: payload,
			Failed:  doc.Failed,
			Error:   doc.Error,
		}
	}
	return t
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
