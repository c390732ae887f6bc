package models

import (
	"time"

	profileModel "vifm-portal/internal/profile/models"
)

// Session is the time-bounded proof of authentication for one identity.
// ExpiresAt must be strictly in the future for the session to be valid;
// expiry is evaluated at read time, never pushed.
type Session struct {
	SubjectID string                `json:"subject_id"`
	Email     string                `json:"email"`
	IssuedAt  time.Time             `json:"issued_at"`
	ExpiresAt time.Time             `json:"expires_at"`
	Profile   *profileModel.Profile `json:"profile,omitempty"`
}

// ValidAt reports whether the session counts as present at the given
// instant.
func (s *Session) ValidAt(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

// Credential is the stored sign-in secret for one identity. The hash is
// bcrypt; the plaintext never leaves the sign-in handler.
type Credential struct {
	SubjectID    string
	Email        string
	PasswordHash []byte
}
