package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

// NonTerminalStatuses are the states from which further transitions are
// still possible. The non-overlap invariant is enforced over these.
var NonTerminalStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// IsTerminal reports whether no further transitions are permitted.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsValid reports whether s is one of the known lifecycle states.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// RescheduleRecord preserves the prior timing of an appointment that was
// moved. History only ever grows; the appointment keeps its identity.
type RescheduleRecord struct {
	Date      string    `bson:"date" json:"date"`
	StartTime string    `bson:"startTime" json:"startTime"`
	EndTime   string    `bson:"endTime" json:"endTime"`
	MovedAt   time.Time `bson:"movedAt" json:"movedAt"`
	MovedBy   string    `bson:"movedBy,omitempty" json:"movedBy,omitempty"`
}

// Appointment is a booked provider-patient time slot.
type Appointment struct {
	ID        string            `bson:"id" json:"id"`
	PatientID string            `bson:"patientId" json:"patientId"`
	DoctorID  string            `bson:"doctorId" json:"doctorId"`
	Date      string            `bson:"date" json:"date"`           // "2006-01-02"
	StartTime string            `bson:"startTime" json:"startTime"` // "HH:MM", 24h
	EndTime   string            `bson:"endTime" json:"endTime"`
	Reason    string            `bson:"reason" json:"reason"`
	Notes     string            `bson:"notes,omitempty" json:"notes,omitempty"`
	IsVirtual bool              `bson:"isVirtual" json:"isVirtual"`
	// MeetingLink is set by the doctor once a virtual appointment is confirmed.
	MeetingLink string            `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
	Status      AppointmentStatus `bson:"status" json:"status"`

	// Active mirrors "status is non-terminal". It exists so the storage
	// layer can hang a partial unique index off a plain equality match,
	// which is what makes concurrent bookings of the same slot lose
	// cleanly instead of double-writing.
	Active bool `bson:"active" json:"-"`

	History []RescheduleRecord `bson:"history,omitempty" json:"history,omitempty"`

	CreatedBy string    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Interval returns the appointment timing in minutes from midnight.
func (a *Appointment) Interval() (start, end int, err error) {
	start, err = ParseClock(a.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(a.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
