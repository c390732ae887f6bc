package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	authModel "vifm-portal/internal/auth/models"
	"vifm-portal/internal/localstate"
	"vifm-portal/internal/profile/models"
	"vifm-portal/internal/profile/store"
	dErrors "vifm-portal/pkg/domain-errors"
)

// failingStore simulates a profile backend outage.
type failingStore struct {
	store.Store
}

func (failingStore) FindByEmail(context.Context, string) (*models.Profile, error) {
	return nil, dErrors.New(dErrors.CodeInternal, "profile backend unavailable")
}

type ResolverSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	state  *localstate.Memory
	logger *slog.Logger
}

func (s *ResolverSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.state = localstate.NewMemory()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ResolverSuite) session(email string) *authModel.Session {
	return &authModel.Session{
		SubjectID: "subject-" + email,
		Email:     email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func (s *ResolverSuite) TestCurrent() {
	s.T().Run("nil session resolves to nil without lookups", func(t *testing.T) {
		resolver := NewResolver(failingStore{}, s.state, s.logger)
		assert.Nil(t, resolver.Current(context.Background(), nil))
	})

	s.T().Run("profile embedded in the session wins over the store", func(t *testing.T) {
		resolver := NewResolver(s.store, s.state, s.logger)
		sess := s.session("bd@vifm.example")
		sess.Profile = &models.Profile{ID: "embedded", Email: sess.Email, Role: models.RoleBD}

		require.NoError(t, s.store.Save(context.Background(), &models.Profile{
			ID:    "stored",
			Email: sess.Email,
			Role:  models.RoleAdmin,
		}))

		prof := resolver.Current(context.Background(), sess)
		require.NotNil(t, prof)
		assert.Equal(t, "embedded", prof.ID)
	})

	s.T().Run("embedded profile with no valid role falls through to the store", func(t *testing.T) {
		resolver := NewResolver(s.store, s.state, s.logger)
		sess := s.session("consultant@vifm.example")
		sess.Profile = &models.Profile{ID: "roleless", Email: sess.Email}

		require.NoError(t, s.store.Save(context.Background(), &models.Profile{
			ID:    "stored",
			Email: sess.Email,
			Role:  models.RoleConsultant,
		}))

		prof := resolver.Current(context.Background(), sess)
		require.NotNil(t, prof)
		assert.Equal(t, "stored", prof.ID)
	})

	s.T().Run("live lookup refreshes the fallback blob", func(t *testing.T) {
		state := localstate.NewMemory()
		resolver := NewResolver(s.store, state, s.logger)
		sess := s.session("refresh@vifm.example")

		require.NoError(t, s.store.Save(context.Background(), &models.Profile{
			ID:    "live",
			Email: sess.Email,
			Role:  models.RoleBD,
		}))

		require.NotNil(t, resolver.Current(context.Background(), sess))
		assert.True(t, state.Has(localstate.ProfileKeyPrefix+sess.SubjectID))
	})

	s.T().Run("store outage degrades to the fallback blob", func(t *testing.T) {
		resolver := NewResolver(failingStore{}, s.state, s.logger)
		sess := s.session("fallback@vifm.example")

		blob, err := json.Marshal(&models.Profile{ID: "cached", Email: sess.Email, Role: models.RoleAdmin})
		require.NoError(t, err)
		require.NoError(t, s.state.Set(context.Background(), localstate.ProfileKeyPrefix+sess.SubjectID, blob, 0))

		prof := resolver.Current(context.Background(), sess)
		require.NotNil(t, prof)
		assert.Equal(t, "cached", prof.ID)
		assert.Equal(t, models.RoleAdmin, prof.Role)
	})

	s.T().Run("fallback blob with an unknown role is rejected", func(t *testing.T) {
		resolver := NewResolver(failingStore{}, s.state, s.logger)
		sess := s.session("badrole@vifm.example")

		blob, err := json.Marshal(&models.Profile{ID: "cached", Email: sess.Email, Role: "superuser"})
		require.NoError(t, err)
		require.NoError(t, s.state.Set(context.Background(), localstate.ProfileKeyPrefix+sess.SubjectID, blob, 0))

		assert.Nil(t, resolver.Current(context.Background(), sess))
	})

	s.T().Run("nothing anywhere resolves to nil", func(t *testing.T) {
		resolver := NewResolver(s.store, s.state, s.logger)
		assert.Nil(t, resolver.Current(context.Background(), s.session("ghost@vifm.example")))
	})
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}
