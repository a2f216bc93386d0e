// File: database/repository/user/user.go
package userRepo

import (
	"context"

	"medisched/models"
)

// UserRepository reads identity records owned by the external user service.
// The only write this subsystem performs is overwriting a doctor's weekly
// availability.
type UserRepository interface {
	// GetByID returns (nil, nil) when no such user exists.
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateAvailability(ctx context.Context, doctorID, encoded string) error
}
