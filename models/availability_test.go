package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name      string
		rng       string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{name: "standard working day", rng: "9:00 AM - 5:00 PM", wantStart: 540, wantEnd: 1020},
		{name: "morning only", rng: "9:00 AM - 12:00 PM", wantStart: 540, wantEnd: 720},
		{name: "afternoon", rng: "1:30 PM - 4:00 PM", wantStart: 810, wantEnd: 960},
		{name: "lowercase meridiem", rng: "9:00 am - 5:00 pm", wantStart: 540, wantEnd: 1020},
		{name: "garbage", rng: "garbage", wantErr: true},
		{name: "missing separator", rng: "9:00 AM 5:00 PM", wantErr: true},
		{name: "reversed range", rng: "5:00 PM - 9:00 AM", wantErr: true},
		{name: "empty", rng: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseTimeRange(tt.rng)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestParseWeeklySchedule(t *testing.T) {
	t.Run("empty string yields the system default", func(t *testing.T) {
		ws, err := ParseWeeklySchedule("")
		require.NoError(t, err)
		assert.Equal(t, "9:00 AM - 5:00 PM", ws["monday"])
		assert.Equal(t, NotAvailable, ws["saturday"])
		assert.Equal(t, NotAvailable, ws["sunday"])
	})

	t.Run("missing weekdays default to not available", func(t *testing.T) {
		ws, err := ParseWeeklySchedule(`{"monday":"9:00 AM - 12:00 PM"}`)
		require.NoError(t, err)
		assert.Equal(t, "9:00 AM - 12:00 PM", ws["monday"])
		assert.Equal(t, NotAvailable, ws["tuesday"])
		assert.Equal(t, NotAvailable, ws["sunday"])
	})

	t.Run("invalid json is an error", func(t *testing.T) {
		_, err := ParseWeeklySchedule("{not json")
		require.Error(t, err)
	})
}

func TestWeeklyScheduleEncodeRoundTrip(t *testing.T) {
	ws := DefaultWeeklySchedule()
	encoded, err := ws.Encode()
	require.NoError(t, err)

	decoded, err := ParseWeeklySchedule(encoded)
	require.NoError(t, err)
	assert.Equal(t, ws, decoded)
}

func TestRangeFor(t *testing.T) {
	ws := WeeklySchedule{"monday": "9:00 AM - 5:00 PM"}
	assert.Equal(t, "9:00 AM - 5:00 PM", ws.RangeFor(time.Monday))
	assert.Equal(t, NotAvailable, ws.RangeFor(time.Tuesday))

	var nilSchedule WeeklySchedule
	assert.Equal(t, NotAvailable, nilSchedule.RangeFor(time.Monday))
}

func TestClockHelpers(t *testing.T) {
	min, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, min)

	_, err = ParseClock("9:3")
	assert.Error(t, err)

	assert.Equal(t, "09:00", FormatClock(540))
	assert.Equal(t, "13:05", FormatClock(785))
}

func TestAppointmentStatus(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusNoShow.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())

	assert.True(t, StatusNoShow.IsValid())
	assert.False(t, AppointmentStatus("rescheduled").IsValid())
}

func TestSlotOverlaps(t *testing.T) {
	slot := Slot{Start: 540, End: 570}

	assert.True(t, slot.Overlaps(540, 570))
	assert.True(t, slot.Overlaps(530, 550))
	assert.True(t, slot.Overlaps(560, 600))

	// Touching boundaries is not overlap.
	assert.False(t, slot.Overlaps(570, 600))
	assert.False(t, slot.Overlaps(510, 540))
}
