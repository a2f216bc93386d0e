package routes

import (
	"net/http"

	"medisched/handlers"
	"medisched/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAppointmentRoutes registers all endpoints for the scheduling engine.
func RegisterAppointmentRoutes(r *gin.Engine, h *handlers.AppointmentHandler) {
	api := r.Group("/api/appointments")
	api.Use(middleware.JWTAuthMiddleware())
	{
		api.GET("/available-slots", h.GetAvailableSlots)
		api.POST("", h.CreateAppointment)
		api.GET("", h.GetAllAppointments)
		api.GET("/:id", h.GetAppointmentByID)
		api.GET("/user/:userId", h.GetUserAppointments)
		api.PUT("/:id", h.RescheduleAppointment)
		api.PATCH("/status/:id", h.UpdateAppointmentStatus)
		api.PATCH("/meeting-link/:id", h.UpdateMeetingLink)
		api.DELETE("/:id", h.DeleteAppointment)
	}
}

// RegisterAvailabilityRoutes registers weekly schedule management endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, h *handlers.AvailabilityHandler) {
	api := r.Group("/api/availability")
	api.Use(middleware.JWTAuthMiddleware())
	{
		api.GET("/:doctorId", h.GetAvailability)
		api.PUT("/:doctorId", h.UpdateAvailability)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
