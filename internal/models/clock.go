package models

import (
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	SlotTimeLayout = "15:04:05"
)

var timeLayouts = []string{
	SlotTimeLayout,
	"15:04",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// NormalizeTime accepts the clock formats users and models tend to produce
// and returns the backend's HH:MM:SS form.
func NormalizeTime(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(SlotTimeLayout), true
		}
	}
	return "", false
}

// NormalizeDate returns raw if it is a valid YYYY-MM-DD date.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", false
	}
	return s, true
}

// DisplayTime renders a slot time like "19:00:00" as "7:00 PM". Values that
// do not parse are returned unchanged.
func DisplayTime(raw string) string {
	norm, ok := NormalizeTime(raw)
	if !ok {
		return raw
	}
	t, _ := time.Parse(SlotTimeLayout, norm)
	return t.Format("3:04 PM")
}

// SlotHour returns the hour component of a slot time.
func SlotHour(raw string) (int, bool) {
	norm, ok := NormalizeTime(raw)
	if !ok {
		return 0, false
	}
	t, _ := time.Parse(SlotTimeLayout, norm)
	return t.Hour(), true
}
