package handlers

import (
	"net/http"

	appointmentRepo "medisched/database/repository/appointment"
	"medisched/models"
	"medisched/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AppointmentHandler exposes the scheduling engine over HTTP.
type AppointmentHandler struct {
	Svc    scheduling.Service
	Logger *zap.Logger
}

// NewAppointmentHandler constructs an AppointmentHandler.
func NewAppointmentHandler(svc scheduling.Service, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc, Logger: logger}
}

// GetAvailableSlots returns the open "HH:MM" slots for a doctor on a date.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Query("doctor")
	date := c.Query("date")
	if doctorID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctor and date query parameters are required"})
		return
	}

	slots, err := h.Svc.AvailableSlots(c.Request.Context(), doctorID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"availableSlots": slots})
}

// CreateAppointment books a new appointment in the pending state.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req scheduling.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Svc.Book(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Appointment created successfully",
		"appointment": appt,
	})
}

// GetAppointmentByID returns a single appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, err := h.Svc.GetAppointment(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// GetUserAppointments lists the appointments a user is party to.
func (h *AppointmentHandler) GetUserAppointments(c *gin.Context) {
	filter := appointmentRepo.ListFilter{
		Status:    models.AppointmentStatus(c.Query("status")),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	appts, err := h.Svc.ListForUser(c.Request.Context(), c.Param("userId"), filter, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// GetAllAppointments lists appointments across users; staff only.
func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	filter := appointmentRepo.ListFilter{
		Status:    models.AppointmentStatus(c.Query("status")),
		DoctorID:  c.Query("doctor"),
		PatientID: c.Query("patient"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	appts, err := h.Svc.ListAll(c.Request.Context(), filter, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// RescheduleAppointment moves an appointment to a new slot, keeping its
// identity and history.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req scheduling.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Svc.Reschedule(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment updated successfully",
		"appointment": appt,
	})
}

// UpdateAppointmentStatus applies a lifecycle transition.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var input struct {
		Status models.AppointmentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), input.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Appointment status updated successfully",
		"appointment": appt,
	})
}

// UpdateMeetingLink attaches a telehealth link to a confirmed virtual
// appointment.
func (h *AppointmentHandler) UpdateMeetingLink(c *gin.Context) {
	var input struct {
		MeetingLink string `json:"meetingLink" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	appt, err := h.Svc.SetMeetingLink(c.Request.Context(), c.Param("id"), input.MeetingLink, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Meeting link updated successfully",
		"appointment": appt,
	})
}

// DeleteAppointment removes an appointment entirely; admin only.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.Svc.DeleteAppointment(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
