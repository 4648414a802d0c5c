// Package memory holds the in-memory session store. Sessions are not
// durable; the mock backend is not a source of truth, so losing one is
// recoverable by definition.
package memory

import (
	"sync"
	"time"

	"github.com/talentops/recruiter-agent/internal/domain"
)

const (
	DefaultIdleTTL  = 30 * time.Minute
	DefaultCapacity = 1024

	janitorInterval = time.Minute
)

// SessionStore keeps one locked entry per session so appends to the same
// session are linearizable while distinct sessions stay independent.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]*entry

	idleTTL  time.Duration
	capacity int
	now      func() time.Time
	done     chan struct{}
	closeOn  sync.Once
}

type entry struct {
	mu   sync.Mutex
	sess domain.Session

	// lastSeen is guarded by SessionStore.mu, not entry.mu: the janitor
	// and capacity enforcement read it while holding only the store lock.
	// entryFor refreshes it on every accessor.
	lastSeen time.Time
}

type Option func(*SessionStore)

func WithIdleTTL(ttl time.Duration) Option {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

func WithCapacity(n int) Option {
	return func(s *SessionStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func NewSessionStore(opts ...Option) *SessionStore {
	s := &SessionStore{
		sessions: make(map[domain.SessionID]*entry),
		idleTTL:  DefaultIdleTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

// GetOrCreate returns a snapshot of the session, creating it on first
// contact.
func (s *SessionStore) GetOrCreate(id domain.SessionID) domain.Session {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.sess)
}

// Peek returns a snapshot without creating the session.
func (s *SessionStore) Peek(id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.sess), nil
}

// AppendTurns appends turns in order under the session lock and folds any
// function results into the simulation context. A session evicted
// mid-request is recreated rather than failing the append.
func (s *SessionStore) AppendTurns(id domain.SessionID, turns ...domain.Turn) {
	if len(turns) == 0 {
		return
	}
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	for _, turn := range turns {
		e.sess.Turns = append(e.sess.Turns, turn)
		if turn.Role == domain.RoleFunctionResult && turn.Result != nil {
			e.sess.Context.Observe(*turn.Result)
		}
	}
	e.sess.UpdatedAt = now
}

// ContextFor returns a snapshot of the session's simulation context.
func (s *SessionStore) ContextFor(id domain.SessionID) domain.SimulationContext {
	e := s.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Context.Clone()
}

// Evict removes the session. In-flight requests observe "not found" and
// recreate.
func (s *SessionStore) Evict(id domain.SessionID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the eviction janitor.
func (s *SessionStore) Close() {
	s.closeOn.Do(func() { close(s.done) })
}

func (s *SessionStore) entryFor(id domain.SessionID) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.lastSeen = s.now()
		return e
	}

	now := s.now()
	e := &entry{
		sess: domain.Session{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
			Context:   domain.SimulationContext{SessionID: id},
		},
		lastSeen: now,
	}
	s.sessions[id] = e
	s.enforceCapacityLocked()
	return e
}

// enforceCapacityLocked drops the least-recently-seen sessions while over
// capacity. Caller holds s.mu.
func (s *SessionStore) enforceCapacityLocked() {
	for len(s.sessions) > s.capacity {
		var oldest domain.SessionID
		var oldestSeen time.Time
		first := true
		for id, e := range s.sessions {
			if first || e.lastSeen.Before(oldestSeen) {
				oldest, oldestSeen, first = id, e.lastSeen, false
			}
		}
		delete(s.sessions, oldest)
	}
}

func (s *SessionStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.done:
			return
		}
	}
}

func (s *SessionStore) evictIdle() {
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

func snapshot(sess domain.Session) domain.Session {
	out := sess
	out.Turns = make([]domain.Turn, len(sess.Turns))
	copy(out.Turns, sess.Turns)
	out.Context = sess.Context.Clone()
	return out
}
