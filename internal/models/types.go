package models

// Intent is the classified purpose of one user utterance.
type Intent string

const (
	IntentCheckAvailability Intent = "check_availability"
	IntentBookReservation   Intent = "book_reservation"
	IntentCheckBooking      Intent = "check_booking"
	IntentModifyBooking     Intent = "modify_booking"
	IntentCancelBooking     Intent = "cancel_booking"
	IntentUnknown           Intent = "unknown"
)

var knownIntents = map[Intent]bool{
	IntentCheckAvailability: true,
	IntentBookReservation:   true,
	IntentCheckBooking:      true,
	IntentModifyBooking:     true,
	IntentCancelBooking:     true,
	IntentUnknown:           true,
}

// ParseIntent maps a raw tag onto the closed intent set.
func ParseIntent(raw string) Intent {
	if i := Intent(raw); knownIntents[i] {
		return i
	}
	return IntentUnknown
}

// Time of day buckets accepted from the classifier.
const (
	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
)

// Entities are the values extracted from an utterance. Zero values mean
// "not mentioned". Date is YYYY-MM-DD and Time is HH:MM:SS once validated.
type Entities struct {
	Date             string `json:"date,omitempty"`
	Time             string `json:"time,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	BookingReference string `json:"booking_reference,omitempty"`
	TimeOfDay        string `json:"time_of_day,omitempty"`
}

// IntentResult is produced once per turn and consumed immediately.
type IntentResult struct {
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
}

// UnknownResult is what the classifier degrades to on any failure.
func UnknownResult() IntentResult {
	return IntentResult{Intent: IntentUnknown}
}

// DialogueContext bridges a pending booking across turns of one session.
type DialogueContext struct {
	Date             string `json:"date,omitempty"`
	PartySize        int    `json:"party_size,omitempty"`
	BookingReference string `json:"booking_reference,omitempty"`
}

func (c DialogueContext) IsEmpty() bool {
	return c == DialogueContext{}
}

func (c *DialogueContext) Clear() {
	*c = DialogueContext{}
}

// Slot is a bookable time offered by the reservation backend.
type Slot struct {
	Time         string `json:"time"`
	Available    bool   `json:"available"`
	MaxPartySize int    `json:"max_party_size"`
}

// Booking is owned by the reservation backend; sessions only hold its reference.
type Booking struct {
	BookingReference string `json:"booking_reference"`
	VisitDate        string `json:"visit_date"`
	VisitTime        string `json:"visit_time"`
	PartySize        int    `json:"party_size"`
	Status           string `json:"status"`
}

const BookingStatusCancelled = "cancelled"

// BookingUpdate is a partial change; zero fields are left untouched.
type BookingUpdate struct {
	Date      string
	Time      string
	PartySize int
}

func (u BookingUpdate) IsEmpty() bool {
	return u == BookingUpdate{}
}

// CancelConfirmation is the backend's acknowledgement of a cancellation.
type CancelConfirmation struct {
	BookingReference string `json:"booking_reference"`
	Status           string `json:"status"`
	Message          string `json:"message"`
}

// ConversationMessage is one transcript line exposed to transports.
type ConversationMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Message string `json:"message"`
}

// ChatRequest arrives over NATS or HTTP.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the reply for one turn.
type ChatResponse struct {
	SessionID    string  `json:"session_id"`
	Reply        string  `json:"reply"`
	Intent       Intent  `json:"intent,omitempty"`
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// Error codes
const (
	ErrorInvalidRequest   = "INVALID_REQUEST"
	ErrorTurnFailed       = "TURN_FAILED"
	ErrorSessionNotFound  = "SESSION_NOT_FOUND"
	ErrorStoreUnavailable = "STORE_UNAVAILABLE"
)
