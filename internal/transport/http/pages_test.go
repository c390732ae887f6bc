package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	authModel "vifm-portal/internal/auth/models"
	"vifm-portal/internal/guard"
	"vifm-portal/internal/localstate"
	profileModel "vifm-portal/internal/profile/models"
	"vifm-portal/pkg/testutil"
)

type stubSessions struct {
	session *authModel.Session
}

func (f *stubSessions) Current(context.Context, string) *authModel.Session { return f.session }

type stubProfiles struct {
	profile *profileModel.Profile
}

func (f *stubProfiles) Current(context.Context, *authModel.Session) *profileModel.Profile {
	return f.profile
}

type PagesSuite struct {
	suite.Suite
	notices *guard.Notices
}

func (s *PagesSuite) newRouter(sess *authModel.Session, prof *profileModel.Profile) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.notices = guard.NewNotices(localstate.NewMemory(), logger)
	ctrl := guard.NewController(&stubSessions{session: sess}, &stubProfiles{profile: prof}, s.notices, logger)

	router := chi.NewRouter()
	NewPages(ctrl, s.notices, logger).Register(router)
	return router
}

func (s *PagesSuite) consultant() (*authModel.Session, *profileModel.Profile) {
	prof := &profileModel.Profile{
		ID:          "u1",
		Email:       "c@vifm.example",
		DisplayName: "Cora Consultant",
		Role:        profileModel.RoleConsultant,
	}
	return &authModel.Session{
		SubjectID: "u1",
		Email:     prof.Email,
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   prof,
	}, prof
}

func (s *PagesSuite) TestPages() {
	s.T().Run("login page renders without a session", func(t *testing.T) {
		router := s.newRouter(nil, nil)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/login.html"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Sign In")
	})

	s.T().Run("login page shows the pending denial notice exactly once", func(t *testing.T) {
		router := s.newRouter(nil, nil)

		// A protected page visit leaves a notice behind, then login shows it.
		denied := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/vifm-main-menu.html"))
		assert.Equal(t, http.StatusSeeOther, denied.Code)

		first := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/login.html"))
		assert.Contains(t, first.Body.String(), "Authentication required")

		second := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/login.html"))
		assert.NotContains(t, second.Body.String(), "Authentication required")
	})

	s.T().Run("main menu greets the signed-in profile", func(t *testing.T) {
		sess, prof := s.consultant()
		router := s.newRouter(sess, prof)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/vifm-main-menu.html"))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Cora Consultant")
	})

	s.T().Run("consultant visiting the admin page bounces to the main menu", func(t *testing.T) {
		sess, prof := s.consultant()
		router := s.newRouter(sess, prof)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/admin.html"))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/vifm-main-menu.html", rr.Header().Get("Location"))
	})

	s.T().Run("notice survives markup in the reason without executing", func(t *testing.T) {
		router := s.newRouter(nil, nil)
		s.notices.Put(context.Background(), "<script>alert(1)</script>")

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/login.html"))

		assert.NotContains(t, rr.Body.String(), "<script>alert(1)</script>")
		assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
	})
}

func TestPagesSuite(t *testing.T) {
	suite.Run(t, new(PagesSuite))
}
