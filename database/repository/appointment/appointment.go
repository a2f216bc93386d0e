// File: database/repository/appointment/appointment.go
package appointmentRepo

import (
	"context"
	"errors"

	"medisched/models"
)

// ErrDuplicateSlot is returned when a write loses the race for a
// (doctor, date, startTime) slot to another non-terminal appointment.
// The unique partial index on the collection is what detects it.
var ErrDuplicateSlot = errors.New("slot already held by another appointment")

// ListFilter narrows appointment queries. Zero values mean "no filter".
type ListFilter struct {
	DoctorID  string
	PatientID string
	Status    models.AppointmentStatus
	StartDate string // inclusive "2006-01-02" lower bound
	EndDate   string // inclusive upper bound
}

// AppointmentRepository is the system of record for appointments.
//
// Methods that return (*models.Appointment, error) yield (nil, nil) when no
// document matched, letting the service layer decide between NotFound and
// a failed precondition.
type AppointmentRepository interface {
	Insert(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	ListByDoctorAndDate(ctx context.Context, doctorID, date string, statuses []models.AppointmentStatus) ([]models.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Appointment, error)

	// UpdateSchedule moves a non-terminal appointment to a new slot on the
	// same record, appending the prior timing to its history.
	UpdateSchedule(ctx context.Context, id, date, startTime, endTime string, record models.RescheduleRecord, updatedBy string) (*models.Appointment, error)

	// UpdateStatus transitions the appointment only if it is still in the
	// expected current status.
	UpdateStatus(ctx context.Context, id string, from, to models.AppointmentStatus, updatedBy string) (*models.Appointment, error)

	SetMeetingLink(ctx context.Context, id, link, updatedBy string) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error

	// MarkNoShows flips every still-active appointment whose scheduled time
	// has fully elapsed to no-show and reports how many were touched.
	MarkNoShows(ctx context.Context, today, nowClock string) (int64, error)

	EnsureIndexes(ctx context.Context) error
}
