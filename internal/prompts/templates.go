package prompts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/tablebuddy/internal/models"
)

const ClassifierPrompt = `You are the booking assistant for The HungryUnicorn restaurant. Your job is to classify the user's message into exactly one intent and extract any booking details it contains.

Today's date is %s (%s). Resolve relative dates such as "tomorrow" or "this Friday" against it.

INTENTS:
- check_availability: the user asks which times are free on a date for a number of people
- book_reservation: the user picks a time to book
- check_booking: the user wants details of an existing booking
- modify_booking: the user wants to change the date, time or party size of an existing booking
- cancel_booking: the user wants to cancel an existing booking
- unknown: anything else

ENTITIES (include only those present in the message):
- date: YYYY-MM-DD
- time: HH:MM (24 hour clock)
- party_size: integer number of people
- booking_reference: the booking code exactly as written
- time_of_day: one of morning, afternoon, evening

RESPONSE FORMAT:
Respond with a single JSON object and nothing else, no markdown fences:
{
  "intent": "intent_name",
  "entities": {
    "entity_name": "value"
  }
}

User message:
%s`

const FallbackMessage = "I'm sorry, I can only help with restaurant bookings. You can ask me to check availability, make a booking, or look up, change or cancel an existing one."

// BuildClassifierPrompt renders the classification prompt. The current date is
// always passed in so relative dates resolve against the caller's clock.
func BuildClassifierPrompt(utterance string, today time.Time) string {
	return fmt.Sprintf(ClassifierPrompt,
		today.Format(models.DateLayout),
		today.Weekday().String(),
		strings.TrimSpace(utterance))
}

type rawIntent struct {
	Intent   string         `json:"intent"`
	Entities map[string]any `json:"entities"`
}

// ParseLLMResponse decodes the model reply and validates every entity,
// dropping values that do not fit their expected shape.
func ParseLLMResponse(content string) (models.IntentResult, error) {
	jsonContent := extractJSON(content)
	if jsonContent == "" {
		return models.UnknownResult(), fmt.Errorf("no valid JSON found in response")
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return models.UnknownResult(), fmt.Errorf("failed to parse JSON: %w", err)
	}

	result := models.IntentResult{
		Intent: models.ParseIntent(strings.TrimSpace(raw.Intent)),
	}
	if result.Intent == models.IntentUnknown {
		return result, nil
	}

	result.Entities = normalizeEntities(raw.Entities)
	return result, nil
}

func normalizeEntities(in map[string]any) models.Entities {
	var out models.Entities

	if s, ok := stringValue(in["date"]); ok {
		if d, ok := models.NormalizeDate(s); ok {
			out.Date = d
		}
	}
	if s, ok := stringValue(in["time"]); ok {
		if t, ok := models.NormalizeTime(s); ok {
			out.Time = t
		}
	}
	if n, ok := intValue(in["party_size"]); ok && n > 0 {
		out.PartySize = n
	}
	if s, ok := stringValue(in["booking_reference"]); ok {
		out.BookingReference = strings.TrimSpace(s)
	}
	if s, ok := stringValue(in["time_of_day"]); ok {
		switch tod := strings.ToLower(strings.TrimSpace(s)); tod {
		case models.TimeOfDayMorning, models.TimeOfDayAfternoon, models.TimeOfDayEvening:
			out.TimeOfDay = tod
		}
	}

	return out
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func extractJSON(content string) string {
	// Look for JSON object in the content
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}

	return content[start : end+1]
}
