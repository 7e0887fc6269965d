package transport

import (
	"context"
	"errors"

	"github.com/avvvet/tablebuddy/internal/chat"
	"github.com/avvvet/tablebuddy/internal/models"
)

type fakeService struct {
	turnErr  error
	resetErr error
	history  []models.ConversationMessage
	lastID   string
	lastText string
	deadline bool
	resetIDs []string
	unknown  bool
	pingErr  error
}

func (f *fakeService) Turn(ctx context.Context, sessionID, text string) (*models.ChatResponse, error) {
	f.lastID, f.lastText = sessionID, text
	_, f.deadline = ctx.Deadline()
	if f.turnErr != nil {
		return nil, f.turnErr
	}
	if text == "" {
		return nil, chat.ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = "generated"
	}
	return &models.ChatResponse{SessionID: sessionID, Reply: "reply to " + text, Intent: models.IntentCheckAvailability}, nil
}

func (f *fakeService) History(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	if sessionID == "broken" {
		return nil, errors.New("redis down")
	}
	return f.history, nil
}

func (f *fakeService) Reset(ctx context.Context, sessionID string) error {
	f.resetIDs = append(f.resetIDs, sessionID)
	return f.resetErr
}

func (f *fakeService) Exists(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "unreachable" {
		return false, errors.New("dial tcp: connection refused")
	}
	return !f.unknown, nil
}

func (f *fakeService) Ping(ctx context.Context) error {
	return f.pingErr
}
