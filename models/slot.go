package models

// Slot is a discrete bookable interval derived on demand from a doctor's
// weekly schedule for one calendar date. Slots are never persisted.
type Slot struct {
	Start int `json:"start"` // minutes from midnight
	End   int `json:"end"`
}

// Label renders the slot start as the "HH:MM" wire form clients select.
func (s Slot) Label() string {
	return FormatClock(s.Start)
}

// Overlaps reports whether two half-open [start, end) intervals intersect.
// Slots that merely touch at a boundary do not overlap.
func (s Slot) Overlaps(start, end int) bool {
	return s.Start < end && start < s.End
}
