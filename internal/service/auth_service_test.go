package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-academic-api/internal/models"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
)

type authRepoStub struct {
	user             *models.User
	findErr          error
	lastLoginUpdated bool
}

func (m *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *authRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthFixture(t *testing.T, active bool) (*AuthService, *authRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &authRepoStub{user: &models.User{
		ID:           "user-1",
		Email:        "teacher@school.test",
		PasswordHash: string(hash),
		FullName:     "Maria Teacher",
		Role:         models.RoleTeacher,
		Active:       active,
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "school-academic-api"})
	return svc, repo
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc, repo := newAuthFixture(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.True(t, repo.lastLoginUpdated)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, repo := newAuthFixture(t, true)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.findErr = sql.ErrNoRows
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ghost@school.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	repo.findErr = errors.New("db down")
	_, err = svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	inactive, _ := newAuthFixture(t, false)
	_, err = inactive.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc, _ := newAuthFixture(t, true)
	other := NewAuthService(&authRepoStub{}, nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "school-academic-api"})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.test", Password: "secret123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.test", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
