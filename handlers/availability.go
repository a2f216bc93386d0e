package handlers

import (
	"net/http"

	"medisched/models"
	"medisched/services/scheduling"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler manages a doctor's recurring weekly schedule.
type AvailabilityHandler struct {
	Svc    scheduling.Service
	Logger *zap.Logger
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc scheduling.Service, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc, Logger: logger}
}

// GetAvailability returns the doctor's weekly schedule, with missing days
// reported as "Not Available".
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	ws, err := h.Svc.GetAvailability(c.Request.Context(), c.Param("doctorId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availability": ws})
}

// UpdateAvailability overwrites the doctor's weekly schedule. Only the
// owning doctor or an administrator may do this.
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	var input models.WeeklySchedule
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	doctorID := c.Param("doctorId")
	if err := h.Svc.UpdateAvailability(c.Request.Context(), doctorID, input, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated successfully"})
}
