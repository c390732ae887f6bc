package guard

import (
	"context"

	authModel "vifm-portal/internal/auth/models"
	profileModel "vifm-portal/internal/profile/models"
)

type sessionKey struct{}
type profileKey struct{}

// SessionFromContext returns the session resolved by an enclosing guard,
// or nil.
func SessionFromContext(ctx context.Context) *authModel.Session {
	if sess, ok := ctx.Value(sessionKey{}).(*authModel.Session); ok {
		return sess
	}
	return nil
}

// ProfileFromContext returns the profile resolved by an enclosing guard,
// or nil.
func ProfileFromContext(ctx context.Context) *profileModel.Profile {
	if prof, ok := ctx.Value(profileKey{}).(*profileModel.Profile); ok {
		return prof
	}
	return nil
}

func withIdentity(ctx context.Context, sess *authModel.Session, prof *profileModel.Profile) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, sess)
	return context.WithValue(ctx, profileKey{}, prof)
}
