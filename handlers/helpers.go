package handlers

import (
	"net/http"

	"medisched/middleware"
	"medisched/models"
	"medisched/services/scheduling"
	"medisched/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// actorFrom rebuilds the scheduling actor from the identity the auth
// middleware placed on the context.
func actorFrom(c *gin.Context) scheduling.Actor {
	actor := scheduling.Actor{}
	if v, ok := c.Get(middleware.ContextUserID); ok {
		if id, ok := v.(string); ok {
			actor.ID = id
		}
	}
	if v, ok := c.Get(middleware.ContextUserRole); ok {
		if role, ok := v.(models.Role); ok {
			actor.Role = role
		}
	}
	return actor
}

// respondError maps scheduling error codes onto HTTP statuses. The code is
// echoed in the body so clients can react, e.g. re-fetching slots after a
// lost booking race.
func respondError(c *gin.Context, err error) {
	code := scheduling.CodeOf(err)
	var status int
	switch code {
	case scheduling.CodeValidation:
		status = http.StatusBadRequest
	case scheduling.CodeForbidden:
		status = http.StatusForbidden
	case scheduling.CodeNotFound:
		status = http.StatusNotFound
	case scheduling.CodeSlotUnavailable, scheduling.CodeInvalidTransition:
		status = http.StatusConflict
	default:
		utils.GetLogger().Error("unhandled scheduling error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
