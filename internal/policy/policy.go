// Package policy is the single source of truth for access decisions. It is
// a flat decision table: no history, no transitions, no side effects, and
// it never errors.
package policy

import (
	authModel "vifm-portal/internal/auth/models"
	profileModel "vifm-portal/internal/profile/models"
)

// Redirect targets for denials.
const (
	RedirectLogin    = "login.html"
	RedirectMainMenu = "vifm-main-menu.html"
)

// Denial reasons shown on the destination page.
const (
	ReasonAuthRequired    = "Authentication required"
	ReasonProfileNotFound = "Profile not found"
	ReasonSystemError     = "System error"
)

// Decision is the ephemeral outcome of one evaluation. Never persisted.
type Decision struct {
	Allow    bool
	Reason   string
	Redirect string
}

// Allowed is the one allowing decision.
var Allowed = Decision{Allow: true}

// Evaluate decides access for (session, profile, required role), in order:
// no session and no profile are denials toward login; an unset required
// role allows any authenticated identity; admin bypasses every role check;
// a matching role allows; everything else is a role mismatch toward the
// main menu.
func Evaluate(sess *authModel.Session, prof *profileModel.Profile, required profileModel.Role) Decision {
	if sess == nil {
		return Decision{Reason: ReasonAuthRequired, Redirect: RedirectLogin}
	}
	if prof == nil {
		return Decision{Reason: ReasonProfileNotFound, Redirect: RedirectLogin}
	}
	if required == profileModel.RoleNone {
		return Allowed
	}
	if prof.Role == profileModel.RoleAdmin {
		return Allowed
	}
	if prof.Role == required {
		return Allowed
	}
	return Decision{
		Reason:   "Access denied: " + string(required) + " role required",
		Redirect: RedirectMainMenu,
	}
}
