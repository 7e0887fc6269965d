package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/avvvet/tablebuddy/internal/chat"
	"github.com/avvvet/tablebuddy/internal/models"
)

const (
	sessionHeader = "X-Session-Id"
	healthTimeout = 2 * time.Second
)

// HTTPServer exposes the chat loop as a small JSON API.
type HTTPServer struct {
	router      *chi.Mux
	service     ChatService
	turnTimeout time.Duration
	logger      *zap.Logger
}

// NewHTTPServer creates the chi router for the chat API
func NewHTTPServer(service ChatService, gatherer prometheus.Gatherer, allowedOrigin string, turnTimeout time.Duration, logger *zap.Logger) *HTTPServer {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", sessionHeader},
		ExposedHeaders: []string{sessionHeader},
		MaxAge:         300,
	}))

	s := &HTTPServer{
		router:      r,
		service:     service,
		turnTimeout: turnTimeout,
		logger:      logger,
	}
	s.routes(gatherer)
	return s
}

func (s *HTTPServer) routes(gatherer prometheus.Gatherer) {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/chat/{sessionID}/history", s.handleHistory)
	s.router.Delete("/api/chat/{sessionID}", s.handleReset)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *HTTPServer) Router() http.Handler { return s.router }

// handleHealth doubles as a readiness check on session storage.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.service.Ping(ctx); err != nil {
		s.logger.Warn("session store unreachable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error_code": models.ErrorStoreUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("", models.ErrorInvalidRequest, msgInvalidJSON))
		return
	}
	if req.SessionID == "" {
		req.SessionID = strings.TrimSpace(r.Header.Get(sessionHeader))
	}
	if req.SessionID == "" {
		req.SessionID = chat.NewSessionID()
	}
	w.Header().Set(sessionHeader, req.SessionID)

	ctx, cancel := context.WithTimeout(r.Context(), s.turnTimeout)
	defer cancel()

	resp, err := s.service.Turn(ctx, req.SessionID, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, errorResponse(req.SessionID, models.ErrorInvalidRequest, msgMessageRequired))
		return
	case err != nil:
		s.logger.Error("chat turn failed", zap.Error(err), zap.String("session_id", req.SessionID))
		writeJSON(w, http.StatusInternalServerError, errorResponse(req.SessionID, models.ErrorTurnFailed, msgTurnFailed))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	exists, err := s.service.Exists(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("session lookup failed", zap.Error(err), zap.String("session_id", sessionID))
		writeJSON(w, http.StatusInternalServerError, errorResponse(sessionID, models.ErrorTurnFailed, msgHistoryFailed))
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, errorResponse(sessionID, models.ErrorSessionNotFound, msgSessionNotFound))
		return
	}

	history, err := s.service.History(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("history lookup failed", zap.Error(err), zap.String("session_id", sessionID))
		writeJSON(w, http.StatusInternalServerError, errorResponse(sessionID, models.ErrorTurnFailed, msgHistoryFailed))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
	})
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.service.Reset(r.Context(), sessionID); err != nil {
		s.logger.Error("session reset failed", zap.Error(err), zap.String("session_id", sessionID))
		writeJSON(w, http.StatusInternalServerError, errorResponse(sessionID, models.ErrorTurnFailed, msgResetFailed))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
