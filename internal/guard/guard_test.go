package guard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	authModel "vifm-portal/internal/auth/models"
	"vifm-portal/internal/localstate"
	"vifm-portal/internal/policy"
	profileModel "vifm-portal/internal/profile/models"
	"vifm-portal/pkg/testutil"
)

// fakeSessions counts resolutions so idempotence is observable.
type fakeSessions struct {
	session *authModel.Session
	calls   int
}

func (f *fakeSessions) Current(context.Context, string) *authModel.Session {
	f.calls++
	return f.session
}

type fakeProfiles struct {
	profile *profileModel.Profile
}

func (f *fakeProfiles) Current(context.Context, *authModel.Session) *profileModel.Profile {
	return f.profile
}

type panickySessions struct{}

func (panickySessions) Current(context.Context, string) *authModel.Session {
	panic("session backend exploded")
}

type GuardSuite struct {
	suite.Suite
	state  *localstate.Memory
	logger *slog.Logger
}

func (s *GuardSuite) SetupTest() {
	s.state = localstate.NewMemory()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *GuardSuite) newController(sessions SessionSource, profiles ProfileSource) (*Controller, *Notices) {
	notices := NewNotices(s.state, s.logger)
	return NewController(sessions, profiles, notices, s.logger), notices
}

func (s *GuardSuite) validSession(role profileModel.Role) (*authModel.Session, *profileModel.Profile) {
	prof := &profileModel.Profile{
		ID:          "u1",
		Email:       "user@vifm.example",
		DisplayName: "Test User",
		Role:        role,
	}
	sess := &authModel.Session{
		SubjectID: "u1",
		Email:     prof.Email,
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   prof,
	}
	return sess, prof
}

func okHandler(rendered *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rendered != nil {
			*rendered = true
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected content"))
	})
}

func (s *GuardSuite) TestProtect() {
	s.T().Run("authenticated consultant reaches an unrestricted page", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleConsultant)
		ctrl, _ := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		rendered := false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vifm-main-menu.html", nil)
		ctrl.Protect(profileModel.RoleNone)(okHandler(&rendered)).ServeHTTP(rr, req)

		assert.True(t, rendered)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	})

	s.T().Run("no session redirects to login without rendering a byte", func(t *testing.T) {
		ctrl, notices := s.newController(&fakeSessions{}, &fakeProfiles{})

		rendered := false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vifm-main-menu.html", nil)
		ctrl.Protect(profileModel.RoleNone)(okHandler(&rendered)).ServeHTTP(rr, req)

		assert.False(t, rendered, "protected handler must not run on denial")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/"+policy.RedirectLogin, rr.Header().Get("Location"))
		assert.NotContains(t, rr.Body.String(), "protected content")
		assert.Equal(t, policy.ReasonAuthRequired, notices.Take(req.Context()))
	})

	s.T().Run("denial notice is keyed to the denied client", func(t *testing.T) {
		ctrl, notices := s.newController(&fakeSessions{}, &fakeProfiles{})

		req := testutil.NewRequest(t, http.MethodGet, "/vifm-main-menu.html")
		req = testutil.WithClientMetadata(req, "10.0.0.7", "Chrome on Linux")
		rr := httptest.NewRecorder()
		ctrl.Protect(profileModel.RoleNone)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Empty(t, notices.Take(context.Background()), "a different client sees no notice")
		assert.Equal(t, policy.ReasonAuthRequired, notices.Take(req.Context()))
	})

	s.T().Run("session without profile redirects to login with its own reason", func(t *testing.T) {
		sess, _ := s.validSession(profileModel.RoleConsultant)
		sess.Profile = nil
		ctrl, notices := s.newController(&fakeSessions{session: sess}, &fakeProfiles{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/opportunities.html", nil)
		ctrl.Protect(profileModel.RoleNone)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/"+policy.RedirectLogin, rr.Header().Get("Location"))
		assert.Equal(t, policy.ReasonProfileNotFound, notices.Take(req.Context()))
	})

	s.T().Run("role mismatch redirects to the main menu, not login", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleConsultant)
		ctrl, notices := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin.html", nil)
		ctrl.Protect(profileModel.RoleAdmin)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/"+policy.RedirectMainMenu, rr.Header().Get("Location"))
		assert.Contains(t, notices.Take(req.Context()), "admin")
	})

	s.T().Run("admin role satisfies any requirement", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleAdmin)
		ctrl, _ := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/pipeline.html", nil)
		ctrl.Protect(profileModel.RoleBD)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	s.T().Run("public pages skip evaluation entirely", func(t *testing.T) {
		sessions := &fakeSessions{}
		ctrl, _ := s.newController(sessions, &fakeProfiles{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login.html", nil)
		ctrl.Protect(profileModel.RoleNone)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Zero(t, sessions.calls, "public pages must not hit the session source")
	})

	s.T().Run("nested guards resolve the session once", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleBD)
		sessions := &fakeSessions{session: sess}
		ctrl, _ := s.newController(sessions, &fakeProfiles{profile: prof})

		inner := ctrl.Protect(profileModel.RoleBD)(okHandler(nil))
		outer := ctrl.Protect(profileModel.RoleNone)(inner)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/pipeline.html", nil)
		outer.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, sessions.calls)
	})

	s.T().Run("guard that is not ready denies with a system error", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleAdmin)
		ctrl, notices := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.False(t, ctrl.WaitReady(ctx, time.Second, func(context.Context) error {
			return context.Canceled
		}))

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin.html", nil)
		ctrl.Protect(profileModel.RoleAdmin)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, policy.ReasonSystemError, notices.Take(req.Context()))
	})

	s.T().Run("panic during resolution fails closed toward login", func(t *testing.T) {
		ctrl, notices := s.newController(panickySessions{}, &fakeProfiles{})

		rendered := false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/vifm-main-menu.html", nil)
		ctrl.Protect(profileModel.RoleNone)(okHandler(&rendered)).ServeHTTP(rr, req)

		assert.False(t, rendered)
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/"+policy.RedirectLogin, rr.Header().Get("Location"))
		assert.Equal(t, policy.ReasonSystemError, notices.Take(req.Context()))
	})
}

func (s *GuardSuite) TestProtectAPI() {
	s.T().Run("no session answers 401", func(t *testing.T) {
		ctrl, _ := s.newController(&fakeSessions{}, &fakeProfiles{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/opportunities", nil)
		ctrl.ProtectAPI(profileModel.RoleNone)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	s.T().Run("role mismatch answers 403", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleConsultant)
		ctrl, _ := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/opportunities", nil)
		ctrl.ProtectAPI(profileModel.RoleBD)(okHandler(nil)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	s.T().Run("allowed request exposes the identity to the handler", func(t *testing.T) {
		sess, prof := s.validSession(profileModel.RoleBD)
		ctrl, _ := s.newController(&fakeSessions{session: sess}, &fakeProfiles{profile: prof})

		var gotEmail string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := SessionFromContext(r.Context()); got != nil {
				gotEmail = got.Email
			}
			w.WriteHeader(http.StatusOK)
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/opportunities", nil)
		ctrl.ProtectAPI(profileModel.RoleBD)(handler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user@vifm.example", gotEmail)
	})
}

func (s *GuardSuite) TestNotices() {
	notices := NewNotices(s.state, s.logger)
	ctx := context.Background()

	s.Run("take is read-once", func() {
		notices.Put(ctx, "Access denied: admin role required")
		s.Equal("Access denied: admin role required", notices.Take(ctx))
		s.Empty(notices.Take(ctx))
	})

	s.Run("no pending notice reads as empty", func() {
		s.Empty(notices.Take(ctx))
	})
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}
