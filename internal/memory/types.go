package memory

import (
	"context"
	"time"

	"github.com/avvvet/tablebuddy/internal/models"
)

// Greeting opens every new conversation.
const Greeting = "Hello! How can I help you book a table at The HungryUnicorn?"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // The actual message text
	Timestamp time.Time `json:"timestamp"` // When the message was sent
}

// Session is everything one conversation carries between turns. The
// dispatcher receives it explicitly and mutates Context in place.
type Session struct {
	ID       string                 `json:"session_id"`
	Context  models.DialogueContext `json:"context"`
	Messages []Message              `json:"messages"`
	Metadata Metadata               `json:"metadata"`
}

// Metadata contains session information
type Metadata struct {
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// NewSession starts a conversation with the assistant greeting.
func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		ID: sessionID,
		Messages: []Message{
			{Role: RoleAssistant, Content: Greeting, Timestamp: now},
		},
		Metadata: Metadata{
			StartedAt:    now,
			LastActivity: now,
			MessageCount: 1,
		},
	}
}

// Store defines the interface for session storage
type Store interface {
	// LoadSession loads a session, creating a fresh one if it does not exist
	LoadSession(ctx context.Context, sessionID string) (*Session, error)

	// SaveContext persists the dialogue context of a session
	SaveContext(ctx context.Context, sessionID string, dc models.DialogueContext) error

	// SaveMessage appends a message to a session
	SaveMessage(ctx context.Context, sessionID string, msg Message) error

	// GetMessages retrieves all messages for a session
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)

	// ClearSession removes a session from storage
	ClearSession(ctx context.Context, sessionID string) error

	// SessionExists checks if a session exists
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// UpdateActivity updates the last activity timestamp
	UpdateActivity(ctx context.Context, sessionID string) error
}
