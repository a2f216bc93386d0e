package scheduling

import (
	"context"

	appointmentRepo "medisched/database/repository/appointment"
	"medisched/models"
)

// BookRequest carries everything needed to create an appointment.
type BookRequest struct {
	DoctorID  string `json:"doctorId"`
	PatientID string `json:"patientId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
	IsVirtual bool   `json:"isVirtual"`
}

// RescheduleRequest moves an existing appointment to a new slot.
type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Notes     string `json:"notes"`
}

// Service is the scheduling engine: slot computation, booking, the
// appointment lifecycle, and availability management.
type Service interface {
	AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error)

	Book(ctx context.Context, req BookRequest, actor Actor) (*models.Appointment, error)
	Reschedule(ctx context.Context, id string, req RescheduleRequest, actor Actor) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, to models.AppointmentStatus, actor Actor) (*models.Appointment, error)
	SetMeetingLink(ctx context.Context, id, link string, actor Actor) (*models.Appointment, error)

	GetAppointment(ctx context.Context, id string, actor Actor) (*models.Appointment, error)
	ListForUser(ctx context.Context, userID string, filter appointmentRepo.ListFilter, actor Actor) ([]models.Appointment, error)
	ListAll(ctx context.Context, filter appointmentRepo.ListFilter, actor Actor) ([]models.Appointment, error)
	DeleteAppointment(ctx context.Context, id string, actor Actor) error

	GetAvailability(ctx context.Context, doctorID string) (models.WeeklySchedule, error)
	UpdateAvailability(ctx context.Context, doctorID string, ws models.WeeklySchedule, actor Actor) error

	// SweepNoShows marks every elapsed active appointment as no-show.
	// Safe to trigger repeatedly.
	SweepNoShows(ctx context.Context) (int64, error)
}
