package models

import "time"

// Role is the application-level capability attached to a profile.
// Admin dominates every role check.
type Role string

const (
	RoleConsultant Role = "consultant"
	RoleBD         Role = "bd"
	RoleAdmin      Role = "admin"

	// RoleNone marks routes that require authentication only.
	RoleNone Role = ""
)

// IsValid reports whether r is one of the three portal roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleConsultant, RoleBD, RoleAdmin:
		return true
	}
	return false
}

// Profile is the role-bearing record associated with an identity. It is
// provisioned server-side once per identity and never mutated by the guard.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
