package domain

import "time"

type SessionID string
type TurnID string

type Role string

const (
	RoleUser           Role = "user"
	RoleAssistant      Role = "assistant"
	RoleFunctionCall   Role = "function_call"
	RoleFunctionResult Role = "function_result"
)

// Turn is one message unit in a session transcript. Exactly one of
// Text, Call or Result is populated depending on Role.
type Turn struct {
	ID        TurnID
	SessionID SessionID
	Role      Role
	Text      string
	Call      *FunctionCall
	Result    *FunctionResult
	CreatedAt time.Time
}

// Session is an append-only transcript plus the simulation context that
// keeps fabricated backend data coherent across turns.
type Session struct {
	ID        SessionID
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []Turn
	Context   SimulationContext
}

// LastAssistantText returns the text of the most recent assistant turn,
// or "" when the session has none.
func (s *Session) LastAssistantText() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleAssistant {
			return s.Turns[i].Text
		}
	}
	return ""
}
