package scheduling

import (
	"medisched/models"
)

// Actor is whoever is asking for an operation: the authenticated user's
// identity plus role, as carried by the externally issued token.
type Actor struct {
	ID   string
	Role models.Role
}

// System is the actor used by internal triggers such as the no-show
// sweeper.
var System = Actor{ID: "system", Role: models.RoleAdmin}

// transitions lists the permitted next states out of each non-terminal
// state. Terminal states have no entry: nothing leaves them.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled, models.StatusNoShow},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled, models.StatusNoShow},
}

// CanTransition reports whether the lifecycle permits moving from one
// status to another.
func CanTransition(from, to models.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransition error when the lifecycle
// forbids the move.
func ValidateTransition(from, to models.AppointmentStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	if from.IsTerminal() {
		return NewInvalidTransition("appointment is already %s", from)
	}
	return NewInvalidTransition("cannot move appointment from %s to %s", from, to)
}

// isDoctorParty reports whether the actor is the appointment's doctor.
func (a Actor) isDoctorParty(appt *models.Appointment) bool {
	return a.Role == models.RoleDoctor && a.ID == appt.DoctorID
}

// isPatientParty reports whether the actor is the appointment's patient.
func (a Actor) isPatientParty(appt *models.Appointment) bool {
	return a.Role == models.RolePatient && a.ID == appt.PatientID
}

// isParty reports whether the actor is either side of the appointment.
func (a Actor) isParty(appt *models.Appointment) bool {
	return a.isDoctorParty(appt) || a.isPatientParty(appt)
}

// CanRead reports whether the actor may view the appointment at all.
func (a Actor) CanRead(appt *models.Appointment) bool {
	return a.Role.IsStaff() || a.isParty(appt)
}

// AuthorizeTransition enforces who may trigger each lifecycle change:
// confirmation, completion and no-show are provider-side actions, while
// either party may cancel.
func AuthorizeTransition(appt *models.Appointment, to models.AppointmentStatus, actor Actor) error {
	switch to {
	case models.StatusConfirmed, models.StatusCompleted, models.StatusNoShow:
		if actor.isDoctorParty(appt) || actor.Role.IsStaff() {
			return nil
		}
		return NewForbidden("only the doctor or staff may mark an appointment %s", to)
	case models.StatusCancelled:
		if actor.isParty(appt) || actor.Role.IsStaff() {
			return nil
		}
		return NewForbidden("only a party to the appointment may cancel it")
	}
	return NewValidationError("unknown target status %q", to)
}
