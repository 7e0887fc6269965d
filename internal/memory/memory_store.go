package memory

import (
	"context"
	"sync"
	"time"

	"github.com/avvvet/tablebuddy/internal/models"
)

// InMemoryStore keeps sessions in process memory. It backs the REPL and any
// server started without REDIS_URL; sessions do not expire.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewInMemoryStore creates an empty in-process store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (s *InMemoryStore) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.sessions[sessionID]; ok {
		return cloneSession(session), nil
	}
	return NewSession(sessionID, s.now()), nil
}

func (s *InMemoryStore) SaveContext(ctx context.Context, sessionID string, dc models.DialogueContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(sessionID)
	session.Context = dc
	session.Metadata.LastActivity = s.now()
	return nil
}

func (s *InMemoryStore) SaveMessage(ctx context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(sessionID)
	session.Messages = append(session.Messages, msg)
	session.Metadata.LastActivity = s.now()
	session.Metadata.MessageCount = len(session.Messages)
	return nil
}

func (s *InMemoryStore) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	session, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

func (s *InMemoryStore) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *InMemoryStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *InMemoryStore) UpdateActivity(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		session.Metadata.LastActivity = s.now()
	}
	return nil
}

// getOrCreate must be called with mu held.
func (s *InMemoryStore) getOrCreate(sessionID string) *Session {
	session, ok := s.sessions[sessionID]
	if !ok {
		session = NewSession(sessionID, s.now())
		s.sessions[sessionID] = session
	}
	return session
}

func cloneSession(in *Session) *Session {
	out := *in
	out.Messages = append([]Message(nil), in.Messages...)
	return &out
}
