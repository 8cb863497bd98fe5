package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryUserRepository())

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEqual(t, "s3cret-pass", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryUserRepository())

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice2", "alice@example.com", "pw2")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}
