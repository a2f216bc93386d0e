package scheduling

import (
	"time"

	"medisched/models"
	"medisched/utils"

	"go.uber.org/zap"
)

// DefaultGranularityMin is the slot length used when a doctor has not
// configured one.
const DefaultGranularityMin = 30

// GenerateSlots expands a weekly schedule for one calendar date into the
// ordered sequence of bookable slots. The walk emits one slot per
// granularity step whose end still fits inside the working range, so N
// boundaries yield N-1 selectable slots.
//
// A day whose range fails to parse behaves exactly like a "Not Available"
// day: the failure is logged and recovered locally so one malformed entry
// never breaks the rest of the week.
func GenerateSlots(ws models.WeeklySchedule, date time.Time, granularityMin int) []models.Slot {
	if granularityMin <= 0 {
		granularityMin = DefaultGranularityMin
	}

	rng := ws.RangeFor(date.Weekday())
	if rng == models.NotAvailable {
		return nil
	}

	dayStart, dayEnd, err := models.ParseTimeRange(rng)
	if err != nil {
		utils.GetLogger().Warn("unparsable availability range, treating day as not available",
			zap.String("range", rng),
			zap.String("weekday", models.WeekdayKey(date.Weekday())),
			zap.Error(err))
		return nil
	}

	var slots []models.Slot
	for t := dayStart; t+granularityMin <= dayEnd; t += granularityMin {
		slots = append(slots, models.Slot{Start: t, End: t + granularityMin})
	}
	return slots
}

// SlotStartingAt finds the slot in an ordered sequence that begins at the
// given minute, if any.
func SlotStartingAt(slots []models.Slot, startMin int) (models.Slot, bool) {
	for _, s := range slots {
		if s.Start == startMin {
			return s, true
		}
		if s.Start > startMin {
			break
		}
	}
	return models.Slot{}, false
}

// SlotLabels renders slots into the ascending "HH:MM" strings the API
// returns.
func SlotLabels(slots []models.Slot) []string {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	return labels
}
