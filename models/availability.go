package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NotAvailable is the sentinel value a schedule entry carries for a
// non-working day. Anything that fails to parse degrades to it.
const NotAvailable = "Not Available"

// WeeklySchedule maps lowercase weekday names ("monday".."sunday") to
// either NotAvailable or a range of the form "H:MM AM - H:MM PM".
type WeeklySchedule map[string]string

// weekdayNames translates time.Weekday into the stored key form.
var weekdayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// WeekdayKey returns the schedule key for a weekday.
func WeekdayKey(d time.Weekday) string {
	return weekdayNames[d]
}

// DefaultWeeklySchedule returns the system default: weekdays 9:00-17:00,
// weekends off. Callers get a fresh copy each time.
func DefaultWeeklySchedule() WeeklySchedule {
	return WeeklySchedule{
		"monday":    "9:00 AM - 5:00 PM",
		"tuesday":   "9:00 AM - 5:00 PM",
		"wednesday": "9:00 AM - 5:00 PM",
		"thursday":  "9:00 AM - 5:00 PM",
		"friday":    "9:00 AM - 5:00 PM",
		"saturday":  NotAvailable,
		"sunday":    NotAvailable,
	}
}

// ParseWeeklySchedule decodes the JSON-encoded schedule string stored on a
// doctor record. An empty string yields the system default; missing
// weekdays are filled in as NotAvailable.
func ParseWeeklySchedule(encoded string) (WeeklySchedule, error) {
	if strings.TrimSpace(encoded) == "" {
		return DefaultWeeklySchedule(), nil
	}
	var ws WeeklySchedule
	if err := json.Unmarshal([]byte(encoded), &ws); err != nil {
		return nil, fmt.Errorf("invalid availability document: %w", err)
	}
	for _, name := range weekdayNames {
		if _, ok := ws[name]; !ok {
			ws[name] = NotAvailable
		}
	}
	return ws, nil
}

// Encode serializes the schedule back into its stored string form.
func (ws WeeklySchedule) Encode() (string, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return "", fmt.Errorf("failed to encode availability: %w", err)
	}
	return string(data), nil
}

// RangeFor returns the raw range entry for a weekday.
func (ws WeeklySchedule) RangeFor(d time.Weekday) string {
	if ws == nil {
		return NotAvailable
	}
	rng, ok := ws[WeekdayKey(d)]
	if !ok {
		return NotAvailable
	}
	return rng
}

// ParseTimeRange parses the canonical "H:MM AM - H:MM PM" form into start
// and end minutes from midnight. The range must move forward in time.
func ParseTimeRange(rng string) (start, end int, err error) {
	parts := strings.Split(rng, " - ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time range %q is not of the form \"start - end\"", rng)
	}
	start, err = parseClock12(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = parseClock12(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("time range %q ends before it starts", rng)
	}
	return start, end, nil
}

// parseClock12 parses a 12-hour clock value such as "9:00 AM" into minutes
// from midnight.
func parseClock12(s string) (int, error) {
	t, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseClock parses a 24-hour "HH:MM" wire value into minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
