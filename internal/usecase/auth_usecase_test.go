package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trueka/pkg/errors"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, RegisterInput{
		Email:       "Ana@Example.com",
		Password:    "password123",
		DisplayName: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", result.User.Email, "emails are stored lowercased")
	assert.Empty(t, result.User.PasswordHash, "credentials never leave the usecase layer")
	assert.NotEmpty(t, result.Session.Token)

	login, err := env.auth.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
	assert.NotEqual(t, result.Session.Token, login.Session.Token)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.registerUser(t, "ana@example.com", "Ana")

	_, err := env.auth.Register(ctx, RegisterInput{
		Email:       "ANA@example.com",
		Password:    "password123",
		DisplayName: "Someone Else",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:       "ana@example.com",
		Password:    "short",
		DisplayName: "Ana",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "ana@example.com", "Ana")

	_, err := env.auth.Login(context.Background(), "ana@example.com", "wrong-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestResolveSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, RegisterInput{
		Email:       "ana@example.com",
		Password:    "password123",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	identity := env.auth.Resolve(ctx, result.Session.Token)
	require.NotNil(t, identity)
	assert.Equal(t, result.User.ID, identity.ID)

	assert.Nil(t, env.auth.Resolve(ctx, "ses_unknown"))
	assert.Nil(t, env.auth.Resolve(ctx, ""))

	require.NoError(t, env.auth.Logout(ctx, result.Session.Token))
	assert.Nil(t, env.auth.Resolve(ctx, result.Session.Token), "a logged-out token no longer resolves")
}

func TestReturnedSessionIsACopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.auth.Register(ctx, RegisterInput{
		Email:       "ana@example.com",
		Password:    "password123",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	// Zeroing the caller's copy would expire the stored session if they
	// shared the same record.
	result.Session.ExpiresAt = time.Time{}
	assert.NotNil(t, env.auth.Resolve(ctx, result.Session.Token))

	login, err := env.auth.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	login.Session.UserID = "usr_tampered"
	identity := env.auth.Resolve(ctx, login.Session.Token)
	require.NotNil(t, identity)
	assert.Equal(t, result.User.ID, identity.ID)
}

func TestResolveExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Sessions minted by this usecase are already expired.
	expiring := NewAuthUseCase(env.store, -time.Minute)
	result, err := expiring.Register(ctx, RegisterInput{
		Email:       "ana@example.com",
		Password:    "password123",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	assert.Nil(t, env.auth.Resolve(ctx, result.Session.Token))

	removed, err := env.auth.SweepExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
