package scheduling

import (
	"medisched/models"
	"medisched/utils"

	"go.uber.org/zap"
)

// FilterAvailable removes every candidate slot whose [start, end) interval
// overlaps a pending or confirmed appointment. The appointment identified
// by excludeID is ignored so that a reschedule keeps its own current slot
// selectable. Candidate order is preserved.
func FilterAvailable(candidates []models.Slot, booked []models.Appointment, excludeID string) []models.Slot {
	if len(candidates) == 0 {
		return nil
	}

	// Collect the occupied intervals once up front.
	type interval struct{ start, end int }
	occupied := make([]interval, 0, len(booked))
	for i := range booked {
		appt := &booked[i]
		if appt.Status != models.StatusPending && appt.Status != models.StatusConfirmed {
			continue
		}
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		start, end, err := appt.Interval()
		if err != nil {
			// A stored appointment with a malformed time cannot be reasoned
			// about; leave it out rather than blocking the whole day.
			utils.GetLogger().Warn("appointment with unparsable interval skipped during conflict check",
				zap.String("appointmentID", appt.ID), zap.Error(err))
			continue
		}
		occupied = append(occupied, interval{start: start, end: end})
	}

	open := make([]models.Slot, 0, len(candidates))
	for _, slot := range candidates {
		conflict := false
		for _, iv := range occupied {
			if slot.Overlaps(iv.start, iv.end) {
				conflict = true
				break
			}
		}
		if !conflict {
			open = append(open, slot)
		}
	}
	return open
}
