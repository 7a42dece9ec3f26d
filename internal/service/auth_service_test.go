package service

import (
	"testing"

	"casetrack/config"
	"casetrack/internal/model"
	"casetrack/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() (*AuthService, *repository.MemoryUserStore) {
	userStore := repository.NewMemoryUserStore()
	svc := NewAuthService(userStore, config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	return svc, userStore
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()

	user, err := svc.Register(&model.RegisterRequest{
		Email:    "ana@example.com",
		Password: "hunter22",
		Name:     "Ana",
		Role:     model.RoleCitizen,
	})
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	resp, err := svc.Login(&model.LoginRequest{Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = svc.Login(&model.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Login(&model.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(&model.RegisterRequest{
		Email:    "x@example.com",
		Password: "secret1",
		Name:     "X",
		Role:     "superuser",
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	// Unit operators must belong to a unit.
	_, err = svc.Register(&model.RegisterRequest{
		Email:    "op@example.com",
		Password: "secret1",
		Name:     "Op",
		Role:     model.RoleUnit,
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	req := &model.RegisterRequest{
		Email:    "dup@example.com",
		Password: "secret1",
		Name:     "Dup",
		Role:     model.RoleCitizen,
	}
	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()
	unitID := uuid.New()

	user, err := svc.Register(&model.RegisterRequest{
		Email:    "op@example.com",
		Password: "secret1",
		Name:     "Op",
		Role:     model.RoleUnit,
		UnitID:   &unitID,
	})
	require.NoError(t, err)

	resp, err := svc.Login(&model.LoginRequest{Email: "op@example.com", Password: "secret1"})
	require.NoError(t, err)

	identity, err := svc.ResolveIdentity(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, model.RoleUnit, identity.Role)
	require.NotNil(t, identity.UnitID)
	assert.Equal(t, unitID, *identity.UnitID)
}

func TestResolveIdentityRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.ResolveIdentity("not-a-token")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestResolveIdentityRejectsForeignSecret(t *testing.T) {
	svc, userStore := newTestAuthService()

	_, err := svc.Register(&model.RegisterRequest{
		Email:    "ana@example.com",
		Password: "hunter22",
		Name:     "Ana",
		Role:     model.RoleCitizen,
	})
	require.NoError(t, err)

	other := NewAuthService(userStore, config.JWTConfig{Secret: "other-secret", ExpirationHours: 1})
	resp, err := other.Login(&model.LoginRequest{Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.ResolveIdentity(resp.Token)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestSuspension(t *testing.T) {
	svc, _ := newTestAuthService()

	user, err := svc.Register(&model.RegisterRequest{
		Email:    "ana@example.com",
		Password: "hunter22",
		Name:     "Ana",
		Role:     model.RoleCitizen,
	})
	require.NoError(t, err)

	resp, err := svc.Login(&model.LoginRequest{Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)

	err = svc.Suspend(citizen(uuid.New()), user.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, svc.Suspend(admin(), user.ID))

	// Existing tokens stop working and new logins are refused.
	_, err = svc.ResolveIdentity(resp.Token)
	assert.ErrorIs(t, err, model.ErrUserSuspended)

	_, err = svc.Login(&model.LoginRequest{Email: "ana@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, model.ErrUserSuspended)
}
