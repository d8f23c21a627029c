package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/surgecast/pkg/errors"
)

func TestService_LoginValidateAndRefresh(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: " Dispatch ", Password: "pass1234"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, OperatorView{Username: "dispatch", Role: RoleAdmin}, resp.Operator)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, "dispatch", claims.Username)
	require.Equal(t, RoleAdmin, claims.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, refreshed.Token)
	require.Equal(t, resp.Operator, refreshed.Operator)

	_, err = svc.Refresh(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "dispatch", Password: "wrong-pass"})
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))

	_, err = svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "pass1234"})
	require.True(t, apperrors.IsCode(err, "invalid_credentials"))

	_, err = svc.Login(context.Background(), LoginRequest{Username: "", Password: "pass1234"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestService_ValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService(t)
	resp, err := svc.Login(context.Background(), LoginRequest{Username: "nurse", Password: "pass1234"})
	require.NoError(t, err)

	later := svc.(*service)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(context.Background(), resp.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	other := NewService(Config{Secret: "other-secret", TokenTTL: time.Hour}, staticDirectory{}, newTestLogger())
	_, err = other.ValidateToken(context.Background(), resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.ValidateToken(context.Background(), "  ")
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	require.Error(t, err)

	hash, err := HashPassword("pass1234")
	require.NoError(t, err)
	require.NotEqual(t, "pass1234", hash)
}

func newTestService(t *testing.T) Service {
	t.Helper()
	hash, err := HashPassword("pass1234")
	require.NoError(t, err)
	dir := staticDirectory{
		"dispatch": {Username: "dispatch", PasswordHash: hash, Role: RoleAdmin},
		"nurse":    {Username: "nurse", PasswordHash: hash, Role: RoleStaff},
	}
	return NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, dir, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type staticDirectory map[string]Operator

func (d staticDirectory) GetByUsername(_ context.Context, username string) (Operator, bool, error) {
	op, ok := d[username]
	return op, ok, nil
}
