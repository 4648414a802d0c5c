package domain

const (
	maxKnownEntities = 24
	maxRecentResults = 5
)

// KnownEntity is a fabricated backend record the simulator has already
// produced in this session. Re-feeding these keeps identifiers and names
// stable across calls.
type KnownEntity struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SimulationContext is the session-scoped hint set passed to the mock
// backend. It is best-effort: consistency is only promised within one
// session, never across sessions.
type SimulationContext struct {
	SessionID     SessionID
	Entities      []KnownEntity
	RecentResults []FunctionResult
}

// Observe folds a function result into the context: recently fabricated
// entities are harvested so later simulations can reuse them.
func (c *SimulationContext) Observe(res FunctionResult) {
	if res.Failed {
		return
	}
	c.harvest(entityKind(res.Name), res.Payload)
	c.RecentResults = append(c.RecentResults, res)
	if len(c.RecentResults) > maxRecentResults {
		c.RecentResults = c.RecentResults[len(c.RecentResults)-maxRecentResults:]
	}
}

// Clone returns an independent snapshot safe to hand to a concurrent
// simulation.
func (c SimulationContext) Clone() SimulationContext {
	out := SimulationContext{
		SessionID:     c.SessionID,
		Entities:      make([]KnownEntity, len(c.Entities)),
		RecentResults: make([]FunctionResult, len(c.RecentResults)),
	}
	copy(out.Entities, c.Entities)
	copy(out.RecentResults, c.RecentResults)
	return out
}

func (c *SimulationContext) harvest(kind string, v any) {
	switch val := v.(type) {
	case map[string]any:
		if e, ok := entityFrom(kind, val); ok {
			c.remember(e)
		}
		for key, nested := range val {
			c.harvest(entityKindForKey(key, kind), nested)
		}
	case []any:
		for _, item := range val {
			c.harvest(kind, item)
		}
	}
}

func (c *SimulationContext) remember(e KnownEntity) {
	for i, known := range c.Entities {
		if known.ID == e.ID {
			if e.Name != "" {
				c.Entities[i].Name = e.Name
			}
			return
		}
	}
	c.Entities = append(c.Entities, e)
	if len(c.Entities) > maxKnownEntities {
		c.Entities = c.Entities[len(c.Entities)-maxKnownEntities:]
	}
}

func entityFrom(kind string, obj map[string]any) (KnownEntity, bool) {
	id, _ := obj["id"].(string)
	if id == "" {
		return KnownEntity{}, false
	}
	e := KnownEntity{Kind: kind, ID: id}
	for _, key := range []string{"name", "title", "email"} {
		if s, ok := obj[key].(string); ok && s != "" {
			e.Name = s
			break
		}
	}
	if first, ok := obj["firstName"].(string); ok && e.Name == "" {
		e.Name = first
		if last, ok := obj["lastName"].(string); ok {
			e.Name += " " + last
		}
	}
	return e, true
}

// entityKind derives a record kind from a function name, e.g.
// createJob -> job, getCandidates -> candidate.
func entityKind(function string) string {
	name := function
	for _, prefix := range []string{"create", "get", "update", "move", "search", "assign"} {
		if len(name) > len(prefix) && hasFoldPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	return singularLower(name)
}

func entityKindForKey(key, fallback string) string {
	switch singularLower(key) {
	case "job", "candidate", "user", "team", "pipeline", "stage", "note", "assessment":
		return singularLower(key)
	}
	return fallback
}

func hasFoldPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		a, b := s[i], prefix[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

func singularLower(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		out = append(out, ch)
	}
	if n := len(out); n > 1 && out[n-1] == 's' {
		out = out[:n-1]
	}
	return string(out)
}
