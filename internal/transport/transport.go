package transport

import (
	"context"

	"github.com/avvvet/tablebuddy/internal/models"
)

// ChatService is what the network fronts need from the chat loop.
type ChatService interface {
	Turn(ctx context.Context, sessionID, text string) (*models.ChatResponse, error)
	History(ctx context.Context, sessionID string) ([]models.ConversationMessage, error)
	Reset(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Ping(ctx context.Context) error
}

const errorReply = "I'm sorry, I encountered an error processing your request. Please try again."

// Client-facing error messages. Internal error text stays in the logs.
const (
	msgInvalidJSON     = "invalid JSON body"
	msgMessageRequired = "message is required"
	msgTurnFailed      = "failed to process chat turn"
	msgHistoryFailed   = "failed to load history"
	msgResetFailed     = "failed to reset session"
	msgSessionNotFound = "session not found"
)

func errorResponse(sessionID, code, message string) *models.ChatResponse {
	return &models.ChatResponse{
		SessionID:    sessionID,
		Reply:        errorReply,
		ErrorCode:    &code,
		ErrorMessage: &message,
	}
}
