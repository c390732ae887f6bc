package jwttoken

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	profileModel "vifm-portal/internal/profile/models"
)

type JWTSuite struct {
	suite.Suite
	service *Service
}

func (s *JWTSuite) SetupTest() {
	s.service = NewService("test-signing-key", "vifm-portal", "vifm-portal-web")
}

func (s *JWTSuite) TestIssueAndValidate() {
	s.T().Run("round trip preserves subject and profile claims", func(t *testing.T) {
		prof := &profileModel.Profile{
			ID:          "subject-1",
			Email:       "bd@vifm.example",
			DisplayName: "BD User",
			Role:        profileModel.RoleBD,
		}
		token, err := s.service.Issue("subject-1", prof.Email, prof, time.Hour)
		require.NoError(t, err)

		claims, err := s.service.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "subject-1", claims.Subject)
		assert.Equal(t, "bd@vifm.example", claims.Email)
		assert.Equal(t, "BD User", claims.DisplayName)
		assert.Equal(t, string(profileModel.RoleBD), claims.Role)
	})

	s.T().Run("nil profile still carries the subject email", func(t *testing.T) {
		token, err := s.service.Issue("subject-2", "new@vifm.example", nil, time.Hour)
		require.NoError(t, err)

		claims, err := s.service.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "subject-2", claims.Subject)
		assert.Equal(t, "new@vifm.example", claims.Email)
		assert.Empty(t, claims.Role)
		assert.Empty(t, claims.DisplayName)
	})

	s.T().Run("expired token returns ErrTokenExpired", func(t *testing.T) {
		token, err := s.service.Issue("subject-3", "expired@vifm.example", nil, -time.Minute)
		require.NoError(t, err)

		_, err = s.service.Validate(token)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTokenExpired))
	})

	s.T().Run("token signed with a different key is rejected", func(t *testing.T) {
		other := NewService("another-key", "vifm-portal", "vifm-portal-web")
		token, err := other.Issue("subject-4", "other@vifm.example", nil, time.Hour)
		require.NoError(t, err)

		_, err = s.service.Validate(token)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrTokenExpired))
	})

	s.T().Run("wrong audience is rejected", func(t *testing.T) {
		other := NewService("test-signing-key", "vifm-portal", "some-other-app")
		token, err := other.Issue("subject-5", "aud@vifm.example", nil, time.Hour)
		require.NoError(t, err)

		_, err = s.service.Validate(token)
		assert.Error(t, err)
	})

	s.T().Run("garbage token is rejected", func(t *testing.T) {
		_, err := s.service.Validate("not-a-token")
		assert.Error(t, err)
	})
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}
