package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/avvvet/tablebuddy/internal/metrics"
	"github.com/avvvet/tablebuddy/internal/models"
)

func newTestHTTPServer(t *testing.T, svc ChatService) http.Handler {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.ObserveTurn(string(models.IntentUnknown))

	return NewHTTPServer(svc, reg, "*", time.Second, zaptest.NewLogger(t)).Router()
}

func TestHTTPHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, &fakeService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHTTPChat(t *testing.T) {
	svc := &fakeService{}
	h := newTestHTTPServer(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"any tables friday?"}`))
	req.Header.Set(sessionHeader, "from-header")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-header", rec.Header().Get(sessionHeader))
	assert.Equal(t, "from-header", svc.lastID)
	assert.True(t, svc.deadline)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "reply to any tables friday?", resp.Reply)
}

func TestHTTPChat_BodySessionWins(t *testing.T) {
	svc := &fakeService{}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"session_id":"from-body","message":"hi"}`))
	req.Header.Set(sessionHeader, "from-header")
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-body", svc.lastID)
}

func TestHTTPChat_Errors(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeService
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad json", &fakeService{}, `nope`, http.StatusBadRequest, models.ErrorInvalidRequest},
		{"empty message", &fakeService{}, `{"message":""}`, http.StatusBadRequest, models.ErrorInvalidRequest},
		{"turn failure", &fakeService{turnErr: errors.New("boom")}, `{"message":"hi"}`, http.StatusInternalServerError, models.ErrorTurnFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHTTPServer(t, tt.svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp models.ChatResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.ErrorCode)
			assert.Equal(t, tt.wantCode, *resp.ErrorCode)
			require.NotNil(t, resp.ErrorMessage)
			assert.NotContains(t, *resp.ErrorMessage, "boom")
		})
	}
}

func TestHTTPChat_MintedSessionInErrorResponse(t *testing.T) {
	svc := &fakeService{turnErr: errors.New("redis: connection reset")}
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, svc.lastID, resp.SessionID)
	assert.Equal(t, resp.SessionID, rec.Header().Get(sessionHeader))
	assert.Equal(t, msgTurnFailed, *resp.ErrorMessage)
}

func TestHTTPHealth_StoreUnavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, &fakeService{pingErr: errors.New("dial tcp: connection refused")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","error_code":"STORE_UNAVAILABLE"}`, rec.Body.String())
}

func TestHTTPHistory_UnknownSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, &fakeService{unknown: true}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/nope/history", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorSessionNotFound, *resp.ErrorCode)

	rec = httptest.NewRecorder()
	newTestHTTPServer(t, &fakeService{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/unreachable/history", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHTTPHistoryAndReset(t *testing.T) {
	svc := &fakeService{history: []models.ConversationMessage{{Role: "assistant", Message: "Hello!"}}}
	h := newTestHTTPServer(t, svc)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/s1/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"s1","messages":[{"role":"assistant","message":"Hello!"}]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/broken/history", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/chat/s1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"s1"}, svc.resetIDs)
}

func TestHTTPMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHTTPServer(t, &fakeService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tablebuddy_turns_total{intent="unknown"} 1`)
}
