package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/tablebuddy/internal/config"
	"github.com/avvvet/tablebuddy/internal/metrics"
	"github.com/avvvet/tablebuddy/internal/models"
)

// NotFoundMessage is the user-facing label for a 404 from the booking endpoints.
const NotFoundMessage = "Booking not found."

var ErrBookingNotFound = errors.New("booking not found")

// APIError is a non-2xx response other than a booking 404.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// API is the set of backend operations the dispatcher needs.
type API interface {
	SearchAvailability(ctx context.Context, date string, partySize int) ([]models.Slot, error)
	CreateBooking(ctx context.Context, date, visitTime string, partySize int) (string, error)
	GetBooking(ctx context.Context, reference string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, reference string, update models.BookingUpdate) (*models.Booking, error)
	CancelBooking(ctx context.Context, reference string) (*models.CancelConfirmation, error)
}

// Operation names, used for error messages and metrics labels.
const (
	OpSearchAvailability = "search_availability"
	OpCreateBooking      = "create_booking"
	OpGetBooking         = "get_booking"
	OpUpdateBooking      = "update_booking"
	OpCancelBooking      = "cancel_booking"
)

// Client issues single, unretried requests against the restaurant's
// consumer API. Requests are form encoded and authenticated with a static
// bearer token.
type Client struct {
	httpClient *http.Client
	cfg        config.ReservationConfig
	metrics    *metrics.Metrics
}

// NewClient creates a client for the configured reservation backend
func NewClient(cfg config.ReservationConfig, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		metrics:    m,
	}
}

// ---- Helpers ----

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// send performs the request and decodes a 2xx JSON body into out. A 404 is
// reported as ErrBookingNotFound when notFoundIsBooking is set.
func (c *Client) send(ctx context.Context, op, method, path string, form url.Values, notFoundIsBooking bool, out any) (err error) {
	defer func() { c.metrics.ObserveReservationCall(op, err) }()

	resp, err := c.do(ctx, method, path, form)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFoundIsBooking {
		return ErrBookingNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func bookingPath(reference string) string {
	return "/Booking/" + url.PathEscape(reference)
}

// ---- Implementations ----

type availabilityResponse struct {
	AvailableSlots []models.Slot `json:"available_slots"`
}

func (c *Client) SearchAvailability(ctx context.Context, date string, partySize int) ([]models.Slot, error) {
	form := url.Values{}
	form.Set("VisitDate", date)
	form.Set("PartySize", strconv.Itoa(partySize))
	form.Set("ChannelCode", c.cfg.ChannelCode)

	var resp availabilityResponse
	if err := c.send(ctx, OpSearchAvailability, http.MethodPost, "/AvailabilitySearch", form, false, &resp); err != nil {
		return nil, err
	}
	return resp.AvailableSlots, nil
}

type createResponse struct {
	BookingReference string `json:"booking_reference"`
}

func (c *Client) CreateBooking(ctx context.Context, date, visitTime string, partySize int) (string, error) {
	cust := c.cfg.Customer
	form := url.Values{}
	form.Set("VisitDate", date)
	form.Set("VisitTime", visitTime)
	form.Set("PartySize", strconv.Itoa(partySize))
	form.Set("ChannelCode", c.cfg.ChannelCode)
	form.Set("Customer[Title]", cust.Title)
	form.Set("Customer[FirstName]", cust.FirstName)
	form.Set("Customer[Surname]", cust.Surname)
	form.Set("Customer[Email]", cust.Email)
	form.Set("Customer[Mobile]", cust.Mobile)

	var resp createResponse
	if err := c.send(ctx, OpCreateBooking, http.MethodPost, "/BookingWithStripeToken", form, false, &resp); err != nil {
		return "", err
	}
	if resp.BookingReference == "" {
		return "", fmt.Errorf("%s: response missing booking_reference", OpCreateBooking)
	}
	return resp.BookingReference, nil
}

func (c *Client) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	var booking models.Booking
	if err := c.send(ctx, OpGetBooking, http.MethodGet, bookingPath(reference), nil, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) UpdateBooking(ctx context.Context, reference string, update models.BookingUpdate) (*models.Booking, error) {
	form := url.Values{}
	if update.Date != "" {
		form.Set("VisitDate", update.Date)
	}
	if update.Time != "" {
		form.Set("VisitTime", update.Time)
	}
	if update.PartySize > 0 {
		form.Set("PartySize", strconv.Itoa(update.PartySize))
	}

	var booking models.Booking
	if err := c.send(ctx, OpUpdateBooking, http.MethodPatch, bookingPath(reference), form, true, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CancelBooking(ctx context.Context, reference string) (*models.CancelConfirmation, error) {
	form := url.Values{}
	form.Set("micrositeName", c.cfg.Microsite)
	form.Set("bookingReference", reference)
	form.Set("cancellationReasonId", strconv.Itoa(c.cfg.CancellationReasonID))

	var conf models.CancelConfirmation
	if err := c.send(ctx, OpCancelBooking, http.MethodPost, bookingPath(reference)+"/Cancel", form, true, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
