package models

import (
	"time"

	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
)

// Role governs which operations a principal may invoke.
type Role string

const (
	RoleVolunteer Role = "VOLUNTEER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) IsValid() bool {
	return r == RoleVolunteer || r == RoleAdmin
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "role must be VOLUNTEER or ADMIN")
	}
	return r, nil
}

// User is created lazily on a principal's first request with RoleVolunteer.
// Promotion to RoleAdmin happens out of band, never over HTTP.
type User struct {
	ID        id.UserID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Provisioning is what the authorization gate learns about a principal in one read.
type Provisioning struct {
	Role        Role
	HasProfile  bool
	Provisioned bool // true when this call created the user
}

// Contact is the slice of a volunteer's data shown to admins next to an enrollment.
type Contact struct {
	UserID    id.UserID `json:"volunteer_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Gender    Gender    `json:"gender"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
}
