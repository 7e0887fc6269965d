package handlers

import (
	"fmt"
	"strings"

	"github.com/avvvet/tablebuddy/internal/models"
)

// AvailableTimes returns the times of bookable slots in backend order,
// narrowed to a time of day when one is given. "morning" is accepted but not
// narrowed.
func AvailableTimes(slots []models.Slot, timeOfDay string) []string {
	var out []string
	for _, s := range slots {
		if !s.Available {
			continue
		}
		if !inTimeOfDay(s.Time, timeOfDay) {
			continue
		}
		out = append(out, s.Time)
	}
	return out
}

func inTimeOfDay(slotTime, timeOfDay string) bool {
	switch timeOfDay {
	case models.TimeOfDayEvening:
		h, ok := models.SlotHour(slotTime)
		return ok && h >= 18
	case models.TimeOfDayAfternoon:
		h, ok := models.SlotHour(slotTime)
		return ok && h >= 12 && h < 18
	default:
		return true
	}
}

func findSlot(slots []models.Slot, visitTime string) (models.Slot, bool) {
	want, ok := models.NormalizeTime(visitTime)
	if !ok {
		return models.Slot{}, false
	}
	for _, s := range slots {
		if got, ok := models.NormalizeTime(s.Time); ok && got == want {
			return s, true
		}
	}
	return models.Slot{}, false
}

// describeUpdate lists the changed fields; only time is reformatted.
func describeUpdate(u models.BookingUpdate) string {
	var parts []string
	if u.Date != "" {
		parts = append(parts, "date to "+u.Date)
	}
	if u.Time != "" {
		parts = append(parts, "time to "+models.DisplayTime(u.Time))
	}
	if u.PartySize > 0 {
		parts = append(parts, fmt.Sprintf("party size to %d", u.PartySize))
	}
	return strings.Join(parts, ", ")
}
