// Package runtime hosts the session registry, the broadcast topics and the
// dispatch engine. It routes events without containing transport or
// encoding logic.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/errors"
	"sync"
)

type Set map[string]struct{}

// SessionState tracks the lifecycle of one connection.
// CLOSED is terminal; no operation accepts the handle afterwards.
type SessionState int32

const (
	StateOpen SessionState = iota
	StateClosing
	StateClosed
)

// Session is the chat-domain state attached to one live connection.
// The connection handle itself is owned by the transport layer; the
// session only references it by ID and keeps the send capability.
type Session struct {
	ConnID string
	sink   contract.EventSink

	mu       sync.RWMutex
	identity string
	bound    bool
	state    SessionState
	topics   Set
}

func newSession(connID string, sink contract.EventSink) *Session {
	return &Session{
		ConnID: connID,
		sink:   sink,
		topics: make(Set),
	}
}

// Sink returns the transport send capability for this session.
func (s *Session) Sink() contract.EventSink {
	return s.sink
}

// Identity returns the bound display identity, if any.
func (s *Session) Identity() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.bound
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Topics returns a snapshot of the topic names this session subscribed to.
func (s *Session) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.topics))
	for name := range s.topics {
		names = append(names, name)
	}
	return names
}

// bindIdentity sets the identity at most once per session lifetime.
// A second binding is a client protocol bug and fails loudly.
func (s *Session) bindIdentity(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound {
		return errors.ErrIdentityAlreadyBound
	}
	s.identity = name
	s.bound = true
	return nil
}

func (s *Session) addTopic(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[name] = struct{}{}
}

func (s *Session) removeTopic(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, name)
}

// beginClose transitions OPEN -> CLOSING exactly once.
// Returns false when teardown already started, making close idempotent.
func (s *Session) beginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return false
	}
	s.state = StateClosing
	return true
}

func (s *Session) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// Registry owns the authoritative connection -> Session map.
// Topics hold references into this map and never outlive it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register creates a Session for a new connection.
// A live connection maps to exactly one session at any time, so a second
// registration for the same connection fails.
func (r *Registry) Register(connID string, sink contract.EventSink) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connID]; ok {
		return nil, errors.ErrDuplicateConnection
	}
	session := newSession(connID, sink)
	r.sessions[connID] = session
	return session, nil
}

// BindIdentity sets the display identity of the session for connID.
func (r *Registry) BindIdentity(connID, name string) error {
	session, err := r.Lookup(connID)
	if err != nil {
		return err
	}
	return session.bindIdentity(name)
}

// Lookup resolves the session for a connection.
func (r *Registry) Lookup(connID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[connID]
	if !ok {
		return nil, errors.ErrUnknownSession
	}
	return session, nil
}

// Deregister removes and returns the session for a connection.
// The caller is responsible for detaching it from every topic so no
// publish in progress observes a half-removed session.
func (r *Registry) Deregister(connID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[connID]
	if !ok {
		return nil, errors.ErrUnknownSession
	}
	delete(r.sessions, connID)
	return session, nil
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
