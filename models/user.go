package models

// Role identifies what a user may do inside the scheduling system.
// Accounts themselves are owned by the external identity service; this
// service only reads them.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RoleAdmin   Role = "admin"
)

// IsStaff reports whether the role may act on appointments it is not a party to.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleNurse
}

// User is the slice of the identity record the scheduler needs: who the
// person is, their role, and (for doctors) their bookable schedule.
type User struct {
	ID             string `bson:"id" json:"id"`
	FirstName      string `bson:"firstName" json:"firstName"`
	LastName       string `bson:"lastName" json:"lastName"`
	Email          string `bson:"email" json:"email"`
	Role           Role   `bson:"role" json:"role"`
	Department     string `bson:"department,omitempty" json:"department,omitempty"`
	Specialization string `bson:"specialization,omitempty" json:"specialization,omitempty"`

	// Availability is the JSON-encoded weekly schedule string, keyed by
	// lowercase weekday name. Empty means the system default applies.
	Availability string `bson:"availability,omitempty" json:"availability,omitempty"`

	// SlotGranularityMin subdivides the daily range into bookable slots.
	// Zero means the configured default (30 minutes).
	SlotGranularityMin int `bson:"slotGranularityMin,omitempty" json:"slotGranularityMin,omitempty"`

	// Telehealth marks doctors who accept virtual appointments.
	Telehealth bool `bson:"telehealth,omitempty" json:"telehealth,omitempty"`
}
