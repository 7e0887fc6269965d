package reservation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/tablebuddy/internal/config"
	"github.com/avvvet/tablebuddy/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.ReservationConfig{
		BaseURL:              srv.URL + "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn",
		APIToken:             "test-token",
		Microsite:            "TheHungryUnicorn",
		ChannelCode:          "ONLINE",
		CancellationReasonID: 1,
		Timeout:              2 * time.Second,
		Customer: config.Customer{
			Title: "Mr", FirstName: "John", Surname: "Doe",
			Email: "john.doe@example.com", Mobile: "07123456789",
		},
	}, nil)
}

func TestClient_SearchAvailability(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn/AvailabilitySearch", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2025-08-09", r.PostForm.Get("VisitDate"))
		assert.Equal(t, "2", r.PostForm.Get("PartySize"))
		assert.Equal(t, "ONLINE", r.PostForm.Get("ChannelCode"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"restaurant":"TheHungryUnicorn","available_slots":[
			{"time":"12:00:00","available":false,"max_party_size":8},
			{"time":"19:00:00","available":true,"max_party_size":6}]}`))
	})

	slots, err := c.SearchAvailability(context.Background(), "2025-08-09", 2)
	require.NoError(t, err)
	assert.Equal(t, []models.Slot{
		{Time: "12:00:00", Available: false, MaxPartySize: 8},
		{Time: "19:00:00", Available: true, MaxPartySize: 6},
	}, slots)
}

func TestClient_CreateBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn/BookingWithStripeToken", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "19:00:00", r.PostForm.Get("VisitTime"))
		assert.Equal(t, "4", r.PostForm.Get("PartySize"))
		assert.Equal(t, "John", r.PostForm.Get("Customer[FirstName]"))
		assert.Equal(t, "john.doe@example.com", r.PostForm.Get("Customer[Email]"))
		_, _ = w.Write([]byte(`{"booking_reference":"ABC1234","status":"confirmed"}`))
	})

	ref, err := c.CreateBooking(context.Background(), "2025-08-09", "19:00:00", 4)
	require.NoError(t, err)
	assert.Equal(t, "ABC1234", ref)
}

func TestClient_CreateBooking_MissingReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"confirmed"}`))
	})

	_, err := c.CreateBooking(context.Background(), "2025-08-09", "19:00:00", 4)
	assert.ErrorContains(t, err, "missing booking_reference")
}

func TestClient_GetBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn/Booking/ABC1234", r.URL.Path)
		_, _ = w.Write([]byte(`{"booking_reference":"ABC1234","visit_date":"2025-08-09","visit_time":"19:00:00","party_size":2,"status":"confirmed"}`))
	})

	b, err := c.GetBooking(context.Background(), "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, &models.Booking{
		BookingReference: "ABC1234", VisitDate: "2025-08-09", VisitTime: "19:00:00", PartySize: 2, Status: "confirmed",
	}, b)
}

func TestClient_GetBooking_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Booking not found"}`, http.StatusNotFound)
	})

	_, err := c.GetBooking(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.GetBooking(context.Background(), "ABC1234")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBookingNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, OpGetBooking, apiErr.Operation)
}

func TestClient_UpdateBooking_SendsOnlyChangedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "6", r.PostForm.Get("PartySize"))
		_, hasDate := r.PostForm["VisitDate"]
		_, hasTime := r.PostForm["VisitTime"]
		assert.False(t, hasDate)
		assert.False(t, hasTime)
		_, _ = w.Write([]byte(`{"booking_reference":"ABC1234","status":"updated"}`))
	})

	b, err := c.UpdateBooking(context.Background(), "ABC1234", models.BookingUpdate{PartySize: 6})
	require.NoError(t, err)
	assert.Equal(t, "updated", b.Status)
}

func TestClient_CancelBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ConsumerApi/v1/Restaurant/TheHungryUnicorn/Booking/ABC1234/Cancel", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "TheHungryUnicorn", r.PostForm.Get("micrositeName"))
		assert.Equal(t, "ABC1234", r.PostForm.Get("bookingReference"))
		assert.Equal(t, "1", r.PostForm.Get("cancellationReasonId"))
		_, _ = w.Write([]byte(`{"booking_reference":"ABC1234","status":"cancelled","message":"Booking cancelled"}`))
	})

	conf, err := c.CancelBooking(context.Background(), "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", conf.Status)
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient(config.ReservationConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)

	_, err := c.SearchAvailability(context.Background(), "2025-08-09", 2)
	assert.ErrorContains(t, err, OpSearchAvailability)
}
