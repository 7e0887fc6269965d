package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/chat"
	"github.com/avvvet/tablebuddy/internal/models"
)

// NATSTransport answers chat requests published on a request/reply subject.
type NATSTransport struct {
	conn        *nats.Conn
	sub         *nats.Subscription
	subject     string
	service     ChatService
	turnTimeout time.Duration
	logger      *zap.Logger
}

// NATSOptions configures the connection and the served subject.
type NATSOptions struct {
	URL         string
	Name        string
	Subject     string
	Timeout     time.Duration
	TurnTimeout time.Duration
}

// NewNATSTransport connects to NATS; call Start to begin serving requests
func NewNATSTransport(opts NATSOptions, service ChatService, logger *zap.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.Timeout(opts.Timeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS", zap.String("url", opts.URL))

	return &NATSTransport{
		conn:        conn,
		subject:     opts.Subject,
		service:     service,
		turnTimeout: opts.TurnTimeout,
		logger:      logger,
	}, nil
}

func (nt *NATSTransport) Start() error {
	sub, err := nt.conn.Subscribe(nt.subject, nt.handleMsg)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.subject, err)
	}
	nt.sub = sub

	nt.logger.Info("subscribed", zap.String("subject", nt.subject))
	return nil
}

func (nt *NATSTransport) handleMsg(msg *nats.Msg) {
	if err := msg.Respond(nt.handleRequest(msg.Data)); err != nil {
		nt.logger.Error("failed to send response", zap.Error(err))
	}
}

// handleRequest turns one encoded ChatRequest into an encoded ChatResponse.
func (nt *NATSTransport) handleRequest(data []byte) []byte {
	var request models.ChatRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("invalid chat request", zap.Error(err))
		return nt.encode(errorResponse("", models.ErrorInvalidRequest, "Invalid request format"))
	}

	if request.SessionID == "" {
		request.SessionID = chat.NewSessionID()
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.turnTimeout)
	defer cancel()

	response, err := nt.service.Turn(ctx, request.SessionID, request.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nt.encode(errorResponse(request.SessionID, models.ErrorInvalidRequest, msgMessageRequired))
	case err != nil:
		nt.logger.Error("chat turn failed", zap.Error(err), zap.String("session_id", request.SessionID))
		return nt.encode(errorResponse(request.SessionID, models.ErrorTurnFailed, msgTurnFailed))
	}

	nt.logger.Debug("chat turn answered", zap.String("session_id", response.SessionID), zap.String("intent", string(response.Intent)))
	return nt.encode(response)
}

func (nt *NATSTransport) encode(response *models.ChatResponse) []byte {
	data, err := json.Marshal(response)
	if err != nil {
		nt.logger.Error("failed to marshal response", zap.Error(err))
		return []byte(`{"error_code":"` + models.ErrorTurnFailed + `"}`)
	}
	return data
}

func (nt *NATSTransport) Close() error {
	if nt.sub != nil {
		if err := nt.sub.Unsubscribe(); err != nil {
			nt.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
	}
	if nt.conn != nil {
		nt.conn.Close()
		nt.logger.Info("NATS connection closed")
	}
	return nil
}
