package mcp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultProtocolVersion is stamped onto sessions created without an
// explicit client-requested version.
const DefaultProtocolVersion = "2024-11-05"

// idleTimeout is how long an initialized session survives without a
// request before it is treated as expired.
const idleTimeout = 30 * time.Minute

// Session is the tool-call surface's per-client state (§3 Session).
type Session struct {
	ID              string
	InitializedAt   time.Time
	LastSeen        time.Time
	ProtocolVersion string
}

// SessionStore holds every live built-in-variant session, keyed by the
// mcp-session-id header.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore builds an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create mints a new session keyed by a server-generated id.
func (s *SessionStore) Create(protocolVersion string) *Session {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	now := time.Now()
	sess := &Session{
		ID:              uuid.NewString(),
		InitializedAt:   now,
		LastSeen:        now,
		ProtocolVersion: protocolVersion,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Touch updates LastSeen and reports whether id names a live, unexpired
// session.
func (s *SessionStore) Touch(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(sess.LastSeen) > idleTimeout {
		delete(s.sessions, id)
		return nil, false
	}
	sess.LastSeen = time.Now()
	return sess, true
}

// Destroy tears a session down explicitly (DELETE).
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
