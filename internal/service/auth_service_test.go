package service

import (
	"alcyxob/totalfit/internal/repository/sqlite"
	"alcyxob/totalfit/internal/store"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func newTestAuth(t *testing.T) (*authService, *store.Store) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewSQLiteUserRepository(db)
	sessions := store.New(users, sqlite.NewSQLiteSessionRepository(db), sqlite.NewSQLitePlanRepository(db), store.Options{}, nil)
	svc := NewAuthService(users, sessions, testSecret).(*authService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, sessions
}

func TestRegister(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Ana ", " Ana@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "10/03/2026", user.MemberSince)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, "Other", "ana@example.com", "another-pass")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.Register(ctx, "", "bob@example.com", "pass")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, err = svc.Register(ctx, "Bob", "bob@example.com", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestLoginIssuesSessionToken(t *testing.T) {
	svc, sessions := newTestAuth(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, "Ana", "ana@example.com", "correct-horse")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "ANA@example.com ", "correct-horse", true)
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.Identity.ID)
	assert.True(t, result.Session.Persistent)

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(result.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, jwt.SigningMethodHS256, token.Method)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, result.Session.ID, claims.SessionID)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, result.Session.ExpiresAt.Unix(), claims.ExpiresAt.Unix())

	identity, err := sessions.GetSession(ctx, result.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "Ana", identity.Name)

	require.NoError(t, svc.Logout(ctx, result.Session.ID))
	identity, err = sessions.GetSession(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "Ana", "ana@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@example.com", "wrong", false)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse", false)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = svc.Login(ctx, "", "", false)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(nil, nil, "") })
}
