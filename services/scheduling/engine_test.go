package scheduling

import (
	"context"
	"testing"
	"time"

	appointmentRepo "medisched/database/repository/appointment"
	"medisched/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory UserRepository for service tests.
type memUsers struct {
	users map[string]*models.User
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateAvailability(_ context.Context, doctorID, encoded string) error {
	m.users[doctorID].Availability = encoded
	return nil
}

// memAppts is an in-memory AppointmentRepository that mirrors the store's
// guarantees: slot uniqueness among non-terminal appointments and guarded
// conditional updates.
type memAppts struct {
	byID map[string]models.Appointment

	// failInsert, when set, fails the next Insert with the given error.
	failInsert error
}

func newMemAppts() *memAppts {
	return &memAppts{byID: map[string]models.Appointment{}}
}

func (m *memAppts) slotHeld(doctorID, date, startTime, excludeID string) bool {
	for _, a := range m.byID {
		if a.ID != excludeID && a.DoctorID == doctorID && a.Date == date &&
			a.StartTime == startTime && !a.Status.IsTerminal() {
			return true
		}
	}
	return false
}

func (m *memAppts) Insert(_ context.Context, appt *models.Appointment) error {
	if m.failInsert != nil {
		err := m.failInsert
		m.failInsert = nil
		return err
	}
	if m.slotHeld(appt.DoctorID, appt.Date, appt.StartTime, "") {
		return appointmentRepo.ErrDuplicateSlot
	}
	appt.Active = !appt.Status.IsTerminal()
	m.byID[appt.ID] = *appt
	return nil
}

func (m *memAppts) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAppts) ListByDoctorAndDate(_ context.Context, doctorID, date string, statuses []models.AppointmentStatus) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.byID {
		if a.DoctorID != doctorID || a.Date != date {
			continue
		}
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (m *memAppts) List(_ context.Context, filter appointmentRepo.ListFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range m.byID {
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.PatientID != "" && a.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.StartDate != "" && a.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && a.Date > filter.EndDate {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAppts) UpdateSchedule(_ context.Context, id, date, startTime, endTime string, record models.RescheduleRecord, updatedBy string) (*models.Appointment, error) {
	a, ok := m.byID[id]
	if !ok || a.Status.IsTerminal() {
		return nil, nil
	}
	if m.slotHeld(a.DoctorID, date, startTime, id) {
		return nil, appointmentRepo.ErrDuplicateSlot
	}
	a.Date, a.StartTime, a.EndTime = date, startTime, endTime
	a.History = append(a.History, record)
	a.UpdatedBy = updatedBy
	m.byID[id] = a
	return &a, nil
}

func (m *memAppts) UpdateStatus(_ context.Context, id string, from, to models.AppointmentStatus, updatedBy string) (*models.Appointment, error) {
	a, ok := m.byID[id]
	if !ok || a.Status != from {
		return nil, nil
	}
	a.Status = to
	a.Active = !to.IsTerminal()
	a.UpdatedBy = updatedBy
	m.byID[id] = a
	return &a, nil
}

func (m *memAppts) SetMeetingLink(_ context.Context, id, link, updatedBy string) (*models.Appointment, error) {
	a, ok := m.byID[id]
	if !ok || !a.IsVirtual || a.Status != models.StatusConfirmed {
		return nil, nil
	}
	a.MeetingLink = link
	a.UpdatedBy = updatedBy
	m.byID[id] = a
	return &a, nil
}

func (m *memAppts) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *memAppts) MarkNoShows(_ context.Context, today, nowClock string) (int64, error) {
	var n int64
	for id, a := range m.byID {
		if a.Status.IsTerminal() {
			continue
		}
		if a.Date < today || (a.Date == today && a.EndTime <= nowClock) {
			a.Status = models.StatusNoShow
			a.Active = false
			a.UpdatedBy = "system"
			m.byID[id] = a
			n++
		}
	}
	return n, nil
}

func (m *memAppts) EnsureIndexes(_ context.Context) error { return nil }

var (
	drPerez = Actor{ID: "doc-1", Role: models.RoleDoctor}
	alice   = Actor{ID: "pat-1", Role: models.RolePatient}
	bob     = Actor{ID: "pat-2", Role: models.RolePatient}
	nina    = Actor{ID: "nurse-1", Role: models.RoleNurse}
	admin   = Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func newTestService(t *testing.T) (*DefaultSchedulingService, *memAppts) {
	t.Helper()

	weekdays, err := models.DefaultWeeklySchedule().Encode()
	require.NoError(t, err)

	users := &memUsers{users: map[string]*models.User{
		"doc-1": {ID: "doc-1", Role: models.RoleDoctor, Availability: weekdays, Telehealth: true},
		"doc-2": {ID: "doc-2", Role: models.RoleDoctor, Availability: weekdays},
		"pat-1": {ID: "pat-1", Role: models.RolePatient},
		"pat-2": {ID: "pat-2", Role: models.RolePatient},
	}}
	appts := newMemAppts()

	return &DefaultSchedulingService{
		Users:        users,
		Appointments: appts,
		Clock: func() time.Time {
			// Monday 2025-06-02, 08:00 UTC.
			return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
		},
	}, appts
}

func book(t *testing.T, svc *DefaultSchedulingService, date, start string) *models.Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), BookRequest{
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Date:      date,
		StartTime: start,
		Reason:    "checkup",
	}, alice)
	require.NoError(t, err)
	return appt
}

func TestBookHappyPath(t *testing.T) {
	svc, _ := newTestService(t)

	appt := book(t, svc, "2025-06-02", "10:00")

	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, "10:00", appt.StartTime)
	assert.Equal(t, "10:30", appt.EndTime)
	assert.Equal(t, "pat-1", appt.CreatedBy)
}

func TestBookValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00"}, alice)
	assert.Equal(t, CodeValidation, CodeOf(err), "missing reason")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-2", Date: "2025-06-02", StartTime: "10:00", Reason: "x"}, alice)
	assert.Equal(t, CodeForbidden, CodeOf(err), "booking on behalf of another patient")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "ghost", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00", Reason: "x"}, alice)
	assert.Equal(t, CodeNotFound, CodeOf(err), "unknown doctor")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "doc-2", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00", Reason: "x", IsVirtual: true}, alice)
	assert.Equal(t, CodeValidation, CodeOf(err), "telehealth with non-telehealth doctor")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00", EndTime: "11:00", Reason: "x"}, alice)
	assert.Equal(t, CodeValidation, CodeOf(err), "endTime not matching the slot")
}

func TestBookOutsideSchedule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-07", StartTime: "10:00", Reason: "x"}, alice)
	assert.Equal(t, CodeSlotUnavailable, CodeOf(err), "saturday is not a working day")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:15", Reason: "x"}, alice)
	assert.Equal(t, CodeSlotUnavailable, CodeOf(err), "start not on a slot boundary")

	_, err = svc.Book(ctx, BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "17:00", Reason: "x"}, alice)
	assert.Equal(t, CodeSlotUnavailable, CodeOf(err), "range end is not a bookable start")
}

func TestBookSlotTaken(t *testing.T) {
	svc, _ := newTestService(t)
	book(t, svc, "2025-06-02", "10:00")

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: "doc-1", PatientID: "pat-2", Date: "2025-06-02", StartTime: "10:00", Reason: "x",
	}, bob)

	assert.Equal(t, CodeSlotUnavailable, CodeOf(err))
}

func TestBookLostRaceMapsToSlotUnavailable(t *testing.T) {
	svc, appts := newTestService(t)

	// Simulate two requests passing the conflict check before either
	// insert lands; the store's unique index rejects the loser.
	appts.failInsert = appointmentRepo.ErrDuplicateSlot

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00", Reason: "x",
	}, alice)

	assert.Equal(t, CodeSlotUnavailable, CodeOf(err))
}

func TestAvailableSlotsReflectBookings(t *testing.T) {
	svc, _ := newTestService(t)
	book(t, svc, "2025-06-02", "09:00")

	labels, err := svc.AvailableSlots(context.Background(), "doc-1", "2025-06-02")
	require.NoError(t, err)

	assert.NotContains(t, labels, "09:00")
	assert.Contains(t, labels, "09:30")
}

func TestAvailableSlotsClosedDay(t *testing.T) {
	svc, _ := newTestService(t)

	labels, err := svc.AvailableSlots(context.Background(), "doc-1", "2025-06-08")
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestRescheduleToSameSlotSucceeds(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	_, err := svc.UpdateStatus(context.Background(), appt.ID, models.StatusConfirmed, drPerez)
	require.NoError(t, err)

	// The appointment's own slot does not count against it.
	moved, err := svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{Date: "2025-06-02", StartTime: "10:00"}, alice)

	require.NoError(t, err)
	assert.Equal(t, appt.ID, moved.ID)
	assert.Equal(t, models.StatusConfirmed, moved.Status, "reschedule must not change status")
	require.Len(t, moved.History, 1)
	assert.Equal(t, "10:00", moved.History[0].StartTime)
	assert.Equal(t, "pat-1", moved.History[0].MovedBy)
}

func TestRescheduleMovesAndRecordsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")

	moved, err := svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{Date: "2025-06-03", StartTime: "14:00"}, alice)

	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", moved.Date)
	assert.Equal(t, "14:00", moved.StartTime)
	assert.Equal(t, "14:30", moved.EndTime)
	require.Len(t, moved.History, 1)
	assert.Equal(t, "2025-06-02", moved.History[0].Date)

	// The original slot is free again.
	labels, err := svc.AvailableSlots(context.Background(), "doc-1", "2025-06-02")
	require.NoError(t, err)
	assert.Contains(t, labels, "10:00")
}

func TestRescheduleToTakenSlot(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")

	_, err := svc.Book(context.Background(), BookRequest{
		DoctorID: "doc-1", PatientID: "pat-2", Date: "2025-06-02", StartTime: "11:00", Reason: "x",
	}, bob)
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), appt.ID, RescheduleRequest{Date: "2025-06-02", StartTime: "11:00"}, alice)
	assert.Equal(t, CodeSlotUnavailable, CodeOf(err))
}

func TestRescheduleGuards(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	_, err := svc.Reschedule(ctx, appt.ID, RescheduleRequest{Date: "2025-06-02", StartTime: "11:00"}, bob)
	assert.Equal(t, CodeForbidden, CodeOf(err), "stranger may not reschedule")

	_, err = svc.Reschedule(ctx, "missing", RescheduleRequest{Date: "2025-06-02", StartTime: "11:00"}, alice)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	_, err = svc.UpdateStatus(ctx, appt.ID, models.StatusCancelled, alice)
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, appt.ID, RescheduleRequest{Date: "2025-06-02", StartTime: "11:00"}, alice)
	assert.Equal(t, CodeInvalidTransition, CodeOf(err), "terminal appointments cannot move")
}

func TestUpdateStatusLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, appt.ID, models.StatusConfirmed, alice)
	assert.Equal(t, CodeForbidden, CodeOf(err), "patients cannot confirm")

	confirmed, err := svc.UpdateStatus(ctx, appt.ID, models.StatusConfirmed, drPerez)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	done, err := svc.UpdateStatus(ctx, appt.ID, models.StatusCompleted, nina)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	_, err = svc.UpdateStatus(ctx, appt.ID, models.StatusConfirmed, drPerez)
	assert.Equal(t, CodeInvalidTransition, CodeOf(err), "terminal states are final")

	_, err = svc.UpdateStatus(ctx, appt.ID, "rescheduled", drPerez)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestNoShowIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	first, err := svc.UpdateStatus(ctx, appt.ID, models.StatusNoShow, drPerez)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, first.Status)

	second, err := svc.UpdateStatus(ctx, appt.ID, models.StatusNoShow, drPerez)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, second.Status)
}

func TestCancelledSlotBecomesBookable(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, appt.ID, models.StatusCancelled, alice)
	require.NoError(t, err)

	again, err := svc.Book(ctx, BookRequest{
		DoctorID: "doc-1", PatientID: "pat-2", Date: "2025-06-02", StartTime: "10:00", Reason: "x",
	}, bob)
	require.NoError(t, err)
	assert.Equal(t, "10:00", again.StartTime)
}

func TestSetMeetingLink(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, BookRequest{
		DoctorID: "doc-1", PatientID: "pat-1", Date: "2025-06-02", StartTime: "10:00", Reason: "x", IsVirtual: true,
	}, alice)
	require.NoError(t, err)

	_, err = svc.SetMeetingLink(ctx, appt.ID, "https://meet.example/room", drPerez)
	assert.Equal(t, CodeValidation, CodeOf(err), "pending appointments get no link")

	_, err = svc.UpdateStatus(ctx, appt.ID, models.StatusConfirmed, drPerez)
	require.NoError(t, err)

	_, err = svc.SetMeetingLink(ctx, appt.ID, "https://meet.example/room", alice)
	assert.Equal(t, CodeForbidden, CodeOf(err), "patients cannot set the link")

	updated, err := svc.SetMeetingLink(ctx, appt.ID, "https://meet.example/room", drPerez)
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example/room", updated.MeetingLink)

	inPerson := book(t, svc, "2025-06-02", "11:00")
	_, err = svc.UpdateStatus(ctx, inPerson.ID, models.StatusConfirmed, drPerez)
	require.NoError(t, err)
	_, err = svc.SetMeetingLink(ctx, inPerson.ID, "https://meet.example/room", drPerez)
	assert.Equal(t, CodeValidation, CodeOf(err), "in-person appointments get no link")
}

func TestGetAppointmentVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	got, err := svc.GetAppointment(ctx, appt.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = svc.GetAppointment(ctx, appt.ID, bob)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	_, err = svc.GetAppointment(ctx, appt.ID, nina)
	assert.NoError(t, err)
}

func TestListForUser(t *testing.T) {
	svc, _ := newTestService(t)
	book(t, svc, "2025-06-02", "10:00")
	book(t, svc, "2025-06-03", "09:00")
	ctx := context.Background()

	mine, err := svc.ListForUser(ctx, "pat-1", appointmentRepo.ListFilter{}, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	ranged, err := svc.ListForUser(ctx, "pat-1", appointmentRepo.ListFilter{StartDate: "2025-06-03"}, alice)
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	_, err = svc.ListForUser(ctx, "pat-1", appointmentRepo.ListFilter{}, bob)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	doctors, err := svc.ListForUser(ctx, "doc-1", appointmentRepo.ListFilter{}, drPerez)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)
}

func TestListAllRequiresStaff(t *testing.T) {
	svc, _ := newTestService(t)
	book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	_, err := svc.ListAll(ctx, appointmentRepo.ListFilter{}, alice)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	all, err := svc.ListAll(ctx, appointmentRepo.ListFilter{}, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteAppointmentAdminOnly(t *testing.T) {
	svc, _ := newTestService(t)
	appt := book(t, svc, "2025-06-02", "10:00")
	ctx := context.Background()

	err := svc.DeleteAppointment(ctx, appt.ID, drPerez)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	require.NoError(t, svc.DeleteAppointment(ctx, appt.ID, admin))

	err = svc.DeleteAppointment(ctx, appt.ID, admin)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestUpdateAvailability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	otherDoctor := Actor{ID: "doc-2", Role: models.RoleDoctor}

	err := svc.UpdateAvailability(ctx, "doc-1", models.WeeklySchedule{"monday": "8:00 AM - 1:00 PM"}, otherDoctor)
	assert.Equal(t, CodeForbidden, CodeOf(err))

	err = svc.UpdateAvailability(ctx, "doc-1", models.WeeklySchedule{"funday": "8:00 AM - 1:00 PM"}, drPerez)
	assert.Equal(t, CodeValidation, CodeOf(err))

	err = svc.UpdateAvailability(ctx, "doc-1", models.WeeklySchedule{"monday": "8:00 XM - 1:00 PM"}, drPerez)
	assert.Equal(t, CodeValidation, CodeOf(err))

	err = svc.UpdateAvailability(ctx, "doc-1", models.WeeklySchedule{"monday": "8:00 AM - 1:00 PM"}, drPerez)
	require.NoError(t, err)

	ws, err := svc.GetAvailability(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "8:00 AM - 1:00 PM", ws["monday"])
	assert.Equal(t, models.NotAvailable, ws["tuesday"], "omitted days close")
}

func TestUnparsableAvailabilityDegradesToClosed(t *testing.T) {
	svc, _ := newTestService(t)
	users := svc.Users.(*memUsers)
	users.users["doc-1"].Availability = "{broken"

	labels, err := svc.AvailableSlots(context.Background(), "doc-1", "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, labels, "bad schedule closes the calendar instead of failing reads")
}

func TestSweepNoShows(t *testing.T) {
	svc, appts := newTestService(t)
	ctx := context.Background()

	appts.byID["past"] = models.Appointment{
		ID: "past", DoctorID: "doc-1", PatientID: "pat-1",
		Date: "2025-06-01", StartTime: "10:00", EndTime: "10:30",
		Status: models.StatusPending, Active: true,
	}
	appts.byID["earlier-today"] = models.Appointment{
		ID: "earlier-today", DoctorID: "doc-1", PatientID: "pat-2",
		Date: "2025-06-02", StartTime: "07:00", EndTime: "07:30",
		Status: models.StatusConfirmed, Active: true,
	}
	appts.byID["later-today"] = models.Appointment{
		ID: "later-today", DoctorID: "doc-1", PatientID: "pat-1",
		Date: "2025-06-02", StartTime: "10:00", EndTime: "10:30",
		Status: models.StatusConfirmed, Active: true,
	}

	// Clock is 08:00 on 2025-06-02.
	marked, err := svc.SweepNoShows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	assert.Equal(t, models.StatusNoShow, appts.byID["past"].Status)
	assert.Equal(t, models.StatusNoShow, appts.byID["earlier-today"].Status)
	assert.Equal(t, models.StatusConfirmed, appts.byID["later-today"].Status)

	again, err := svc.SweepNoShows(ctx)
	require.NoError(t, err)
	assert.Zero(t, again, "sweep is idempotent")
}
