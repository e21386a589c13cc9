package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage/jsonfile"
)

func newUserService(t *testing.T) (*UserService, *auth.TokenCodec) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := jsonfile.New(t.TempDir(), logger)
	tokens := auth.NewTokenCodec("service-test-secret-0123456789", 24*time.Hour)
	return NewUserService(store, tokens), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newUserService(t)

	profile, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "s3cret",
		FullName: "  Alice Smith  ",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.ID)
	assert.Equal(t, "Alice Smith", profile.FullName)

	token, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, userID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)

	// Case matters: "Alice" is a different account.
	_, err = svc.Register(ctx, RegisterInput{Username: "Alice", Password: "pw"})
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	var verr *core.ValidationError

	_, err := svc.Register(ctx, RegisterInput{Username: "  ", Password: "pw"})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Password: ""})
	assert.ErrorAs(t, err, &verr)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	wrongPassword := err
	assert.ErrorIs(t, wrongPassword, core.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	unknownUser := err
	assert.ErrorIs(t, unknownUser, core.ErrInvalidCredentials)

	// Same error either way, no username oracle.
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestUpdateProfilePasswordChange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "old-pw"})
	require.NoError(t, err)

	newPW := "new-pw"
	_, err = svc.UpdateProfile(ctx, 1, ProfileUpdate{Password: &newPW})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "old-pw")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice", "new-pw")
	assert.NoError(t, err)
}

func TestUpdateProfilePartial(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	_, err := svc.Register(ctx, RegisterInput{
		Username: "alice", Password: "pw", FullName: "Alice", Email: "a@example.com",
	})
	require.NoError(t, err)

	email := "alice@example.com"
	profile, err := svc.UpdateProfile(ctx, 1, ProfileUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.Equal(t, "Alice", profile.FullName)

	empty := ""
	_, err = svc.UpdateProfile(ctx, 1, ProfileUpdate{Password: &empty})
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)
}
