package core

import (
	"sync"
	"time"
)

// SessionState is the lifecycle state of a session.
type SessionState int

const (
	// SessionOpen accepts invites and messages.
	SessionOpen SessionState = iota
	// SessionClosedState is terminal; every further operation fails
	// with ErrSessionClosed.
	SessionClosedState
)

func (s SessionState) String() string {
	if s == SessionOpen {
		return "open"
	}
	return "closed"
}

// Session is a moderator-governed group of participants. The moderator is
// always implicitly a member. All mutations serialize on the session's own
// mutex, so invites to different sessions never contend.
type Session struct {
	ID        string
	Moderator string
	CreatedAt time.Time

	registry *Registry

	mu      sync.Mutex
	state   SessionState
	members map[string]struct{}
}

func newSession(id, moderator string, registry *Registry) *Session {
	return &Session{
		ID:        id,
		Moderator: moderator,
		CreatedAt: time.Now().UTC(),
		registry:  registry,
		state:     SessionOpen,
		members:   map[string]struct{}{moderator: {}},
	}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Invite adds target to the session. Moderator-only; the target must be
// registered. Inviting an existing member is a no-op success.
func (s *Session) Invite(caller, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosedState {
		return ErrSessionClosed
	}
	if caller != s.Moderator {
		return ErrUnauthorized
	}
	if !s.registry.Known(target) {
		return ErrUnknownParticipant
	}

	s.members[target] = struct{}{}
	return nil
}

// Leave removes a participant from the session. When the moderator leaves
// the session closes: authority does not transfer to a successor.
// Returns true if this leave closed the session.
func (s *Session) Leave(participant string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosedState {
		return false, ErrSessionClosed
	}

	delete(s.members, participant)
	if participant == s.Moderator {
		s.state = SessionClosedState
		return true, nil
	}
	return false, nil
}

// Close is the explicit terminal transition. Moderator-only.
func (s *Session) Close(caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosedState {
		return ErrSessionClosed
	}
	if caller != s.Moderator {
		return ErrUnauthorized
	}

	s.state = SessionClosedState
	return nil
}

// Members returns a snapshot of the member names, moderator included.
func (s *Session) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.members))
	for name := range s.members {
		names = append(names, name)
	}
	return names
}

// IsMember reports whether the participant currently belongs to the session.
func (s *Session) IsMember(participant string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[participant]
	return ok
}

// memberSet returns a copied member set and whether the session is open.
// The copy is the dispatch snapshot: membership edits after resolution do
// not affect an in-flight fan-out.
func (s *Session) memberSet() (map[string]struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosedState {
		return nil, false
	}
	set := make(map[string]struct{}, len(s.members))
	for name := range s.members {
		set[name] = struct{}{}
	}
	return set, true
}

// sessionTable indexes sessions by id. Table access has its own lock;
// record mutation goes through each session's mutex.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]*Session)}
}

func (t *sessionTable) put(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.ID] = s
}

func (t *sessionTable) get(id string) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}
