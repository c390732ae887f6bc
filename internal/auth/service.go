package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vifm-portal/internal/auth/models"
	"vifm-portal/internal/localstate"
	"vifm-portal/internal/platform/metrics"
	profileModel "vifm-portal/internal/profile/models"
	dErrors "vifm-portal/pkg/domain-errors"
	audit "vifm-portal/pkg/platform/audit"
	"vifm-portal/pkg/requestcontext"
)

// CredentialStore is the persistence port for sign-in secrets.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Credential, error)
}

// ProfileLookup fetches the role-bearing profile to embed in new sessions.
type ProfileLookup interface {
	FindByEmail(ctx context.Context, email string) (*profileModel.Profile, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(subjectID, email string, profile *profileModel.Profile, expiresIn time.Duration) (string, error)
}

// Service owns the sign-in/sign-out lifecycle: credential verification,
// token issuance, and maintenance of the persisted fallback blobs.
type Service struct {
	credentials CredentialStore
	profiles    ProfileLookup
	tokens      TokenIssuer
	state       localstate.Store
	sessionTTL  time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	publisher   audit.Publisher
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func NewService(
	credentials CredentialStore,
	profiles ProfileLookup,
	tokens TokenIssuer,
	state localstate.Store,
	sessionTTL time.Duration,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if state == nil {
		return nil, fmt.Errorf("local state store is required")
	}

	svc := &Service{
		credentials: credentials,
		profiles:    profiles,
		tokens:      tokens,
		state:       state,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// SignIn verifies the credential and issues a session. The fallback blobs
// are written best-effort: a blob write failure degrades offline recovery,
// not the sign-in itself.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *models.Session, error) {
	cred, err := s.credentials.FindByEmail(ctx, email)
	if err != nil {
		// Same answer for unknown email and bad password.
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	var prof *profileModel.Profile
	if s.profiles != nil {
		prof, err = s.profiles.FindByEmail(ctx, cred.Email)
		if err != nil {
			// A missing profile is not a sign-in failure; the guard will
			// deny protected pages with its own reason.
			prof = nil
		}
	}

	token, err := s.tokens.Issue(cred.SubjectID, cred.Email, prof, s.sessionTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		SubjectID: cred.SubjectID,
		Email:     cred.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
		Profile:   prof,
	}
	s.persistFallback(ctx, token, sess, prof)

	if s.metrics != nil {
		s.metrics.SignIns.Inc()
	}
	audit.Emit(ctx, s.publisher, s.logger, audit.Event{
		Name:      audit.EventSignIn,
		SubjectID: cred.SubjectID,
		Email:     cred.Email,
		RequestID: requestcontext.RequestID(ctx),
		Device:    requestcontext.DeviceLabel(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
	})
	return token, sess, nil
}

// SignOut destroys the session's persisted fallback state. The token
// itself simply ages out; there is no revocation list in this portal.
func (s *Service) SignOut(ctx context.Context, rawToken string, sess *models.Session) {
	if rawToken != "" {
		if err := s.state.Delete(ctx, localstate.SessionKeyPrefix+TokenKey(rawToken)); err != nil {
			s.logger.WarnContext(ctx, "failed to delete session blob on sign-out", "error", err)
		}
	}
	if sess != nil {
		if err := s.state.Delete(ctx, localstate.ProfileKeyPrefix+sess.SubjectID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete profile blob on sign-out", "error", err)
		}
		audit.Emit(ctx, s.publisher, s.logger, audit.Event{
			Name:      audit.EventSignOut,
			SubjectID: sess.SubjectID,
			Email:     sess.Email,
			RequestID: requestcontext.RequestID(ctx),
		})
	}
}

func (s *Service) persistFallback(ctx context.Context, token string, sess *models.Session, prof *profileModel.Profile) {
	if blob, err := json.Marshal(sess); err == nil {
		if err := s.state.Set(ctx, localstate.SessionKeyPrefix+TokenKey(token), blob, s.sessionTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to persist session blob", "error", err)
		}
	}
	if prof == nil {
		return
	}
	if blob, err := json.Marshal(prof); err == nil {
		if err := s.state.Set(ctx, localstate.ProfileKeyPrefix+sess.SubjectID, blob, s.sessionTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to persist profile blob", "error", err)
		}
	}
}
