// Package profile resolves the role-bearing profile for an authenticated
// identity.
package profile

import (
	"context"
	"encoding/json"
	"log/slog"

	authModel "vifm-portal/internal/auth/models"
	"vifm-portal/internal/localstate"
	"vifm-portal/internal/profile/models"
	"vifm-portal/internal/profile/store"
	dErrors "vifm-portal/pkg/domain-errors"
)

// Resolver maps a session to its profile. Sources are tried in order, each
// only if the previous yielded nothing: the profile embedded in the
// session, a live lookup by the session email, and finally the persisted
// fallback blob. Lookup failures degrade to nil, never raise.
type Resolver struct {
	store  store.Store
	state  localstate.Store
	logger *slog.Logger
}

func NewResolver(s store.Store, state localstate.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: s, state: state, logger: logger}
}

// Current returns the profile for sess, or nil. A nil session short-circuits
// without attempting any lookup.
func (r *Resolver) Current(ctx context.Context, sess *authModel.Session) *models.Profile {
	if sess == nil {
		return nil
	}

	if sess.Profile != nil && sess.Profile.Role.IsValid() {
		return sess.Profile
	}

	if r.store != nil {
		prof, err := r.store.FindByEmail(ctx, sess.Email)
		if err == nil {
			r.refreshFallback(ctx, sess.SubjectID, prof)
			return prof
		}
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			r.logger.WarnContext(ctx, "live profile lookup failed", "error", err, "email", sess.Email)
		}
	}

	return r.fromFallback(ctx, sess.SubjectID)
}

func (r *Resolver) fromFallback(ctx context.Context, subjectID string) *models.Profile {
	if r.state == nil {
		return nil
	}
	blob, err := r.state.Get(ctx, localstate.ProfileKeyPrefix+subjectID)
	if err != nil {
		return nil
	}
	var prof models.Profile
	if err := json.Unmarshal(blob, &prof); err != nil || !prof.Role.IsValid() {
		return nil
	}
	return &prof
}

// refreshFallback keeps the persisted copy in step with the live record so
// a later provider outage degrades gracefully.
func (r *Resolver) refreshFallback(ctx context.Context, subjectID string, prof *models.Profile) {
	if r.state == nil {
		return
	}
	blob, err := json.Marshal(prof)
	if err != nil {
		return
	}
	if err := r.state.Set(ctx, localstate.ProfileKeyPrefix+subjectID, blob, 0); err != nil {
		r.logger.WarnContext(ctx, "failed to refresh profile blob", "error", err)
	}
}
