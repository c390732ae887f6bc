package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"vifm-portal/internal/auth/models"
	jwttoken "vifm-portal/internal/jwt_token"
	"vifm-portal/internal/localstate"
	profileModel "vifm-portal/internal/profile/models"
	"vifm-portal/pkg/requestcontext"
)

// TokenValidator is the live identity boundary consulted before any
// fallback.
type TokenValidator interface {
	Validate(tokenString string) (*jwttoken.Claims, error)
}

// Accessor retrieves the current session: live token validation first, the
// persisted fallback blob second. Expired sessions read as absent, and
// reading one proactively clears the stale fallback copy. No failure
// escapes; everything collapses to nil.
type Accessor struct {
	tokens TokenValidator
	state  localstate.Store
	logger *slog.Logger
}

func NewAccessor(tokens TokenValidator, state localstate.Store, logger *slog.Logger) *Accessor {
	return &Accessor{tokens: tokens, state: state, logger: logger}
}

// Current resolves the session carried by rawToken, or nil.
func (a *Accessor) Current(ctx context.Context, rawToken string) *models.Session {
	if rawToken == "" {
		return nil
	}
	key := localstate.SessionKeyPrefix + TokenKey(rawToken)

	claims, err := a.tokens.Validate(rawToken)
	if err == nil {
		return sessionFromClaims(claims)
	}
	if errors.Is(err, jwttoken.ErrTokenExpired) {
		// The session is over; don't let the fallback copy resurrect it.
		a.clear(ctx, key)
		return nil
	}

	// Live validation failed for another reason (key rotation, transient
	// provider trouble); consult the persisted copy.
	blob, err := a.state.Get(ctx, key)
	if err != nil {
		return nil
	}
	var sess models.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		a.clear(ctx, key)
		return nil
	}
	if !sess.ValidAt(requestcontext.Now(ctx)) {
		a.clear(ctx, key)
		return nil
	}
	return &sess
}

func (a *Accessor) clear(ctx context.Context, key string) {
	if err := a.state.Delete(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "failed to clear stale session blob", "error", err)
	}
}

// TokenKey derives the fallback-store key component for a raw token. Only
// the hash is ever persisted.
func TokenKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

func sessionFromClaims(claims *jwttoken.Claims) *models.Session {
	sess := &models.Session{
		SubjectID: claims.Subject,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.Role != "" {
		sess.Profile = &profileModel.Profile{
			ID:          claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Role:        profileModel.Role(claims.Role),
		}
	}
	return sess
}
