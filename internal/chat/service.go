package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/handlers"
	"github.com/avvvet/tablebuddy/internal/memory"
	"github.com/avvvet/tablebuddy/internal/models"
)

// ErrEmptyMessage is returned for blank user input.
var ErrEmptyMessage = errors.New("message is empty")

// TurnHandler runs one dispatched turn against a loaded session.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sess *memory.Session, utterance string) handlers.Turn
}

// Service is the entry point shared by the REPL, HTTP and NATS fronts. Turns
// for the same session run one at a time.
type Service struct {
	handler TurnHandler
	memory  *memory.Manager
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a chat service over the given turn handler and memory
func NewService(handler TurnHandler, manager *memory.Manager, logger *zap.Logger) *Service {
	return &Service{
		handler: handler,
		memory:  manager,
		logger:  logger,
		locks:   make(map[string]*sessionLock),
	}
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Turn records the utterance, dispatches it and persists the reply and the
// updated dialogue context. An empty sessionID starts a new session. Once the
// dispatcher has run, the reply is returned even if persisting it fails: the
// backend may already hold the change the reply describes.
func (s *Service) Turn(ctx context.Context, sessionID, text string) (*models.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	unlock := s.lock(sessionID)
	defer unlock()

	sess, err := s.memory.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.memory.SaveUserMessage(ctx, sessionID, text); err != nil {
		return nil, err
	}

	turn := s.handler.HandleTurn(ctx, sess, text)

	log := s.logger.With(zap.String("session_id", sessionID), zap.String("intent", string(turn.Intent)))
	if err := s.memory.SaveContext(ctx, sessionID, sess.Context); err != nil {
		log.Error("failed to persist dialogue context", zap.Error(err))
	}
	if err := s.memory.SaveAssistantMessage(ctx, sessionID, turn.Reply); err != nil {
		log.Error("failed to persist assistant reply", zap.Error(err))
	}

	return &models.ChatResponse{
		SessionID: sessionID,
		Reply:     turn.Reply,
		Intent:    turn.Intent,
	}, nil
}

// History returns the stored transcript, starting with the greeting. Reading
// it counts as activity and extends the session's expiry.
func (s *Service) History(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	msgs, err := s.memory.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	if err := s.memory.UpdateActivity(ctx, sessionID); err != nil {
		s.logger.Warn("failed to refresh session activity", zap.Error(err), zap.String("session_id", sessionID))
	}

	out := make([]models.ConversationMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.ConversationMessage{Role: m.Role, Message: m.Content})
	}
	return out, nil
}

// Exists reports whether the session has been persisted.
func (s *Service) Exists(ctx context.Context, sessionID string) (bool, error) {
	return s.memory.SessionExists(ctx, sessionID)
}

// Ping checks that session storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.memory.Ping(ctx)
}

// Transcript renders the conversation as plain text.
func (s *Service) Transcript(ctx context.Context, sessionID string) (string, error) {
	return s.memory.GetFormattedHistory(ctx, sessionID)
}

// Reset forgets the conversation and its dialogue context.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	if err := s.memory.ClearSession(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("conversation reset", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}
