package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/models"
)

// Manager fronts the session store. The store is the only source of truth;
// LangChainGo buffers are built from it on demand to render transcripts, so
// an expired session never resurfaces.
type Manager struct {
	store  Store
	logger *zap.Logger
}

// NewManager creates a new memory manager
func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
	}
}

// LoadSession returns the stored session, or a fresh one holding the greeting.
func (m *Manager) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// buffer loads the stored messages into a LangChainGo conversation buffer.
func (m *Manager) buffer(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	msgs, err := m.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	mem := memory.NewConversationBuffer()
	for _, msg := range msgs {
		var chatMsg llms.ChatMessage

		switch msg.Role {
		case RoleUser:
			chatMsg = llms.HumanChatMessage{Content: msg.Content}
		case RoleAssistant:
			chatMsg = llms.AIChatMessage{Content: msg.Content}
		default:
			m.logger.Warn("unknown message role, skipping", zap.String("role", msg.Role), zap.String("session_id", sessionID))
			continue
		}

		if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to add message to memory: %w", err)
		}
	}

	return mem, nil
}

// SaveUserMessage appends a user message to the stored session
func (m *Manager) SaveUserMessage(ctx context.Context, sessionID, message string) error {
	return m.persist(ctx, sessionID, RoleUser, message)
}

// SaveAssistantMessage appends an assistant message to the stored session
func (m *Manager) SaveAssistantMessage(ctx context.Context, sessionID, message string) error {
	return m.persist(ctx, sessionID, RoleAssistant, message)
}

func (m *Manager) persist(ctx context.Context, sessionID, role, content string) error {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := m.store.SaveMessage(ctx, sessionID, msg); err != nil {
		return fmt.Errorf("failed to save %s message: %w", role, err)
	}
	return nil
}

func (m *Manager) SaveContext(ctx context.Context, sessionID string, dc models.DialogueContext) error {
	if err := m.store.SaveContext(ctx, sessionID, dc); err != nil {
		return fmt.Errorf("failed to save dialogue context: %w", err)
	}
	return nil
}

// GetFormattedHistory renders the transcript one "Speaker: text" line per
// message.
func (m *Manager) GetFormattedHistory(ctx context.Context, sessionID string) (string, error) {
	mem, err := m.buffer(ctx, sessionID)
	if err != nil {
		return "", err
	}

	messages, err := mem.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}

	if len(messages) == 0 {
		return "No previous conversation.", nil
	}

	var b strings.Builder
	for _, msg := range messages {
		switch cm := msg.(type) {
		case llms.HumanChatMessage:
			fmt.Fprintf(&b, "User: %s\n", cm.Content)
		case llms.AIChatMessage:
			fmt.Fprintf(&b, "Assistant: %s\n", cm.Content)
		}
	}

	return b.String(), nil
}

func (m *Manager) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	return m.store.GetMessages(ctx, sessionID)
}

// ClearSession removes the stored session. The next load starts over from
// the greeting.
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	if err := m.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.logger.Info("session cleared", zap.String("session_id", sessionID))
	return nil
}

// SessionExists checks if a session has been persisted
func (m *Manager) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return m.store.SessionExists(ctx, sessionID)
}

// UpdateActivity refreshes the session's last activity and expiry
func (m *Manager) UpdateActivity(ctx context.Context, sessionID string) error {
	return m.store.UpdateActivity(ctx, sessionID)
}

// Ping reports whether the backing store is reachable. Stores without a
// connection are always healthy.
func (m *Manager) Ping(ctx context.Context) error {
	if pinger, ok := m.store.(interface{ Ping(context.Context) error }); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Close closes the underlying store
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
