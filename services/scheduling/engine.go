package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	appointmentRepo "medisched/database/repository/appointment"
	userRepo "medisched/database/repository/user"
	"medisched/models"
	"medisched/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// DefaultSchedulingService implements Service on top of the user and
// appointment repositories, with an optional Redis cache in front of the
// slot read path.
type DefaultSchedulingService struct {
	Users        userRepo.UserRepository
	Appointments appointmentRepo.AppointmentRepository

	// Cache may be nil; slot responses are then always recomputed.
	Cache    *redis.Client
	CacheTTL time.Duration

	// DefaultGranularity applies to doctors without a configured slot
	// length. Zero means DefaultGranularityMin.
	DefaultGranularity int

	// Clock is swappable for tests. Nil means time.Now.
	Clock func() time.Time
}

func (s *DefaultSchedulingService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *DefaultSchedulingService) granularityFor(doctor *models.User) int {
	if doctor.SlotGranularityMin > 0 {
		return doctor.SlotGranularityMin
	}
	if s.DefaultGranularity > 0 {
		return s.DefaultGranularity
	}
	return DefaultGranularityMin
}

// loadDoctor fetches a user and verifies it is a doctor.
func (s *DefaultSchedulingService) loadDoctor(ctx context.Context, doctorID string) (*models.User, error) {
	if doctorID == "" {
		return nil, NewValidationError("doctor id is required")
	}
	doctor, err := s.Users.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil || doctor.Role != models.RoleDoctor {
		return nil, NewNotFound("doctor %s not found", doctorID)
	}
	return doctor, nil
}

// scheduleFor parses the doctor's stored availability. An unparsable
// document degrades to a week with no working days rather than failing the
// request.
func (s *DefaultSchedulingService) scheduleFor(doctor *models.User) models.WeeklySchedule {
	ws, err := models.ParseWeeklySchedule(doctor.Availability)
	if err != nil {
		utils.GetLogger().Warn("doctor has unparsable availability document",
			zap.String("doctorID", doctor.ID), zap.Error(err))
		ws = models.WeeklySchedule{}
		for d := time.Sunday; d <= time.Saturday; d++ {
			ws[models.WeekdayKey(d)] = models.NotAvailable
		}
	}
	return ws
}

// computeOpenSlots generates the full slot sequence for a date and prunes
// it against the doctor's non-terminal appointments.
func (s *DefaultSchedulingService) computeOpenSlots(ctx context.Context, doctor *models.User, date string, excludeID string) (candidates, open []models.Slot, err error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, nil, NewValidationError("invalid date %q, want YYYY-MM-DD", date)
	}

	candidates = GenerateSlots(s.scheduleFor(doctor), day, s.granularityFor(doctor))
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	booked, err := s.Appointments.ListByDoctorAndDate(ctx, doctor.ID, date, models.NonTerminalStatuses)
	if err != nil {
		return nil, nil, err
	}
	return candidates, FilterAvailable(candidates, booked, excludeID), nil
}

// AvailableSlots returns the ascending "HH:MM" labels of every open slot
// for a doctor on a date.
func (s *DefaultSchedulingService) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	doctor, err := s.loadDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	key := slotCacheKey(doctorID, date)
	if labels, ok := s.cachedSlots(ctx, key); ok {
		return labels, nil
	}

	_, open, err := s.computeOpenSlots(ctx, doctor, date, "")
	if err != nil {
		return nil, err
	}

	labels := SlotLabels(open)
	s.storeSlots(ctx, key, labels)
	return labels, nil
}

// Book validates a booking request against the open slots and persists the
// appointment. A race lost to another booking surfaces as SlotUnavailable.
func (s *DefaultSchedulingService) Book(ctx context.Context, req BookRequest, actor Actor) (*models.Appointment, error) {
	if req.DoctorID == "" || req.PatientID == "" || req.Date == "" || req.StartTime == "" || req.Reason == "" {
		return nil, NewValidationError("doctorId, patientId, date, startTime and reason are required")
	}
	// Patients may only book for themselves.
	if actor.Role == models.RolePatient && actor.ID != req.PatientID {
		return nil, NewForbidden("not authorized to create an appointment for another patient")
	}

	patient, err := s.Users.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, NewNotFound("patient %s not found", req.PatientID)
	}

	doctor, err := s.loadDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if req.IsVirtual && !doctor.Telehealth {
		return nil, NewValidationError("doctor %s does not support telehealth appointments", doctor.ID)
	}

	startMin, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, NewValidationError("invalid startTime: %v", err)
	}

	_, open, err := s.computeOpenSlots(ctx, doctor, req.Date, "")
	if err != nil {
		return nil, err
	}
	slot, ok := SlotStartingAt(open, startMin)
	if !ok {
		return nil, NewSlotUnavailable("doctor is not available at %s on %s", req.StartTime, req.Date)
	}
	endTime := models.FormatClock(slot.End)
	if req.EndTime != "" && req.EndTime != endTime {
		return nil, NewValidationError("endTime %s does not match the %d-minute slot ending at %s",
			req.EndTime, slot.End-slot.Start, endTime)
	}

	now := s.now().UTC()
	appt := &models.Appointment{
		ID:        uuid.New().String(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		StartTime: slot.Label(),
		EndTime:   endTime,
		Reason:    req.Reason,
		Notes:     req.Notes,
		IsVirtual: req.IsVirtual,
		Status:    models.StatusPending,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Appointments.Insert(ctx, appt); err != nil {
		if errors.Is(err, appointmentRepo.ErrDuplicateSlot) {
			return nil, NewSlotUnavailable("slot %s on %s was just taken", req.StartTime, req.Date)
		}
		return nil, err
	}

	s.invalidateSlots(ctx, req.DoctorID, req.Date)
	return appt, nil
}

// Reschedule moves an appointment to a new slot while preserving its
// identity, appending the prior timing to its history. The appointment's
// own slot stays selectable, so moving to the same start succeeds.
func (s *DefaultSchedulingService) Reschedule(ctx context.Context, id string, req RescheduleRequest, actor Actor) (*models.Appointment, error) {
	if req.Date == "" || req.StartTime == "" {
		return nil, NewValidationError("date and startTime are required")
	}

	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, NewNotFound("appointment %s not found", id)
	}
	if !actor.isParty(appt) && !actor.Role.IsStaff() {
		return nil, NewForbidden("not authorized to reschedule this appointment")
	}
	if appt.Status.IsTerminal() {
		return nil, NewInvalidTransition("cannot reschedule a %s appointment", appt.Status)
	}

	doctor, err := s.loadDoctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}

	startMin, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, NewValidationError("invalid startTime: %v", err)
	}

	_, open, err := s.computeOpenSlots(ctx, doctor, req.Date, appt.ID)
	if err != nil {
		return nil, err
	}
	slot, ok := SlotStartingAt(open, startMin)
	if !ok {
		return nil, NewSlotUnavailable("doctor is not available at %s on %s", req.StartTime, req.Date)
	}

	record := models.RescheduleRecord{
		Date:      appt.Date,
		StartTime: appt.StartTime,
		EndTime:   appt.EndTime,
		MovedAt:   s.now().UTC(),
		MovedBy:   actor.ID,
	}

	oldDate := appt.Date
	updated, err := s.Appointments.UpdateSchedule(ctx, id, req.Date, slot.Label(), models.FormatClock(slot.End), record, actor.ID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrDuplicateSlot) {
			return nil, NewSlotUnavailable("slot %s on %s was just taken", req.StartTime, req.Date)
		}
		return nil, err
	}
	if updated == nil {
		// The guard lost a race with a terminal transition.
		return nil, NewInvalidTransition("appointment %s is no longer active", id)
	}

	s.invalidateSlots(ctx, appt.DoctorID, oldDate)
	s.invalidateSlots(ctx, appt.DoctorID, req.Date)
	return updated, nil
}

// UpdateStatus applies a lifecycle transition. Triggering no-show on an
// already terminal appointment is a no-op so duplicate external triggers
// are tolerated.
func (s *DefaultSchedulingService) UpdateStatus(ctx context.Context, id string, to models.AppointmentStatus, actor Actor) (*models.Appointment, error) {
	if !to.IsValid() {
		return nil, NewValidationError("unknown appointment status %q", to)
	}

	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, NewNotFound("appointment %s not found", id)
	}

	if to == models.StatusNoShow && appt.Status.IsTerminal() {
		return appt, nil
	}
	if err := ValidateTransition(appt.Status, to); err != nil {
		return nil, err
	}
	if err := AuthorizeTransition(appt, to, actor); err != nil {
		return nil, err
	}

	if to == models.StatusCompleted {
		// Soft check only: completing before the scheduled start is odd but
		// not forbidden at the data layer.
		if start, _, err := appt.Interval(); err == nil {
			day, derr := time.Parse(dateLayout, appt.Date)
			if derr == nil && s.now().Before(day.Add(time.Duration(start)*time.Minute)) {
				utils.GetLogger().Warn("appointment completed before its scheduled start",
					zap.String("appointmentID", id), zap.String("date", appt.Date), zap.String("startTime", appt.StartTime))
			}
		}
	}

	updated, err := s.Appointments.UpdateStatus(ctx, id, appt.Status, to, actor.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewInvalidTransition("appointment %s changed concurrently, re-fetch and retry", id)
	}

	// A freed slot changes what is bookable.
	if to == models.StatusCancelled || to == models.StatusNoShow {
		s.invalidateSlots(ctx, appt.DoctorID, appt.Date)
	}
	return updated, nil
}

// SetMeetingLink attaches a telehealth link to a confirmed virtual
// appointment. Only the appointment's doctor may do this.
func (s *DefaultSchedulingService) SetMeetingLink(ctx context.Context, id, link string, actor Actor) (*models.Appointment, error) {
	if link == "" {
		return nil, NewValidationError("meeting link is required")
	}

	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, NewNotFound("appointment %s not found", id)
	}
	if !actor.isDoctorParty(appt) {
		return nil, NewForbidden("only the appointment's doctor may set the meeting link")
	}
	if !appt.IsVirtual {
		return nil, NewValidationError("cannot add a meeting link to a non-telehealth appointment")
	}
	if appt.Status != models.StatusConfirmed {
		return nil, NewValidationError("meeting links may only be added to confirmed appointments")
	}

	updated, err := s.Appointments.SetMeetingLink(ctx, id, link, actor.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, NewInvalidTransition("appointment %s is no longer confirmed", id)
	}
	return updated, nil
}

// GetAppointment returns one appointment, visible only to its parties and
// staff.
func (s *DefaultSchedulingService) GetAppointment(ctx context.Context, id string, actor Actor) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, NewNotFound("appointment %s not found", id)
	}
	if !actor.CanRead(appt) {
		return nil, NewForbidden("not authorized to view this appointment")
	}
	return appt, nil
}

// ListForUser returns the appointments a user is party to, on the side
// their role implies.
func (s *DefaultSchedulingService) ListForUser(ctx context.Context, userID string, filter appointmentRepo.ListFilter, actor Actor) ([]models.Appointment, error) {
	if actor.ID != userID && !actor.Role.IsStaff() && actor.Role != models.RoleDoctor {
		return nil, NewForbidden("not authorized to view these appointments")
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewNotFound("user %s not found", userID)
	}

	switch user.Role {
	case models.RolePatient:
		filter.PatientID = userID
	case models.RoleDoctor:
		filter.DoctorID = userID
	}
	return s.Appointments.List(ctx, filter)
}

// ListAll returns appointments across all users; staff only.
func (s *DefaultSchedulingService) ListAll(ctx context.Context, filter appointmentRepo.ListFilter, actor Actor) ([]models.Appointment, error) {
	if !actor.Role.IsStaff() {
		return nil, NewForbidden("not authorized to access this resource")
	}
	return s.Appointments.List(ctx, filter)
}

// DeleteAppointment removes the record entirely; admin only.
func (s *DefaultSchedulingService) DeleteAppointment(ctx context.Context, id string, actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return NewForbidden("only administrators may delete appointments")
	}
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt == nil {
		return NewNotFound("appointment %s not found", id)
	}
	if err := s.Appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSlots(ctx, appt.DoctorID, appt.Date)
	return nil
}

// GetAvailability returns the doctor's weekly schedule with missing days
// filled in as Not Available.
func (s *DefaultSchedulingService) GetAvailability(ctx context.Context, doctorID string) (models.WeeklySchedule, error) {
	doctor, err := s.loadDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.scheduleFor(doctor), nil
}

// UpdateAvailability overwrites the doctor's weekly schedule. Reads are
// fail-safe about bad ranges; writes are not, so a typo is caught here
// instead of silently producing an empty day.
func (s *DefaultSchedulingService) UpdateAvailability(ctx context.Context, doctorID string, ws models.WeeklySchedule, actor Actor) error {
	owner := actor.Role == models.RoleDoctor && actor.ID == doctorID
	if !owner && actor.Role != models.RoleAdmin {
		return NewForbidden("only the doctor or an administrator may edit availability")
	}

	if _, err := s.loadDoctor(ctx, doctorID); err != nil {
		return err
	}

	full := models.WeeklySchedule{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full[models.WeekdayKey(d)] = models.NotAvailable
	}
	for day, rng := range ws {
		if _, ok := full[day]; !ok {
			return NewValidationError("unknown weekday %q", day)
		}
		if rng == models.NotAvailable {
			continue
		}
		if _, _, err := models.ParseTimeRange(rng); err != nil {
			return NewValidationError("invalid range for %s: %v", day, err)
		}
		full[day] = rng
	}

	encoded, err := full.Encode()
	if err != nil {
		return err
	}
	return s.Users.UpdateAvailability(ctx, doctorID, encoded)
}

// SweepNoShows marks every active appointment whose time has fully elapsed
// as no-show. Idempotent: a second sweep finds nothing active to touch.
func (s *DefaultSchedulingService) SweepNoShows(ctx context.Context) (int64, error) {
	now := s.now()
	today := now.Format(dateLayout)
	nowClock := models.FormatClock(now.Hour()*60 + now.Minute())
	return s.Appointments.MarkNoShows(ctx, today, nowClock)
}

func slotCacheKey(doctorID, date string) string {
	return fmt.Sprintf("availableSlots:%s:%s", doctorID, date)
}

func (s *DefaultSchedulingService) cachedSlots(ctx context.Context, key string) ([]string, bool) {
	if s.Cache == nil {
		return nil, false
	}
	data, err := s.Cache.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var labels []string
	if err := json.Unmarshal([]byte(data), &labels); err != nil {
		return nil, false
	}
	return labels, true
}

func (s *DefaultSchedulingService) storeSlots(ctx context.Context, key string, labels []string) {
	if s.Cache == nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, data, ttl).Err(); err != nil {
		utils.GetLogger().Warn("failed to cache available slots", zap.String("key", key), zap.Error(err))
	}
}

func (s *DefaultSchedulingService) invalidateSlots(ctx context.Context, doctorID, date string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Del(ctx, slotCacheKey(doctorID, date)).Err(); err != nil {
		utils.GetLogger().Warn("failed to invalidate slot cache",
			zap.String("doctorID", doctorID), zap.String("date", date), zap.Error(err))
	}
}
