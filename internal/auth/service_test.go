package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// fakeUsers is an in-memory UserSource. Mutating a user between calls
// models an admin flipping flags while a session is live.
type fakeUsers struct {
	byID map[uint64]model.User
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	users := &fakeUsers{byID: map[uint64]model.User{
		1: {ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: hash},
	}}
	return NewService(users, NewMemoryStore(time.Hour)), users
}

func TestLoginSuccess(t *testing.T) {
	svc, _ := newTestService(t)

	u, sid, err := svc.Login(context.Background(), "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.ID)
	assert.Len(t, sid, 64)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "mallory", "hunter22")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "alice", "hunter23")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginBlockedUser(t *testing.T) {
	svc, users := newTestService(t)
	u := users.byID[1]
	u.IsBlocked = true
	users.byID[1] = u

	_, _, err := svc.Login(context.Background(), "alice", "hunter22")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestCurrentUserResolvesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, sid, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	u, err := svc.CurrentUser(ctx, sid)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
}

func TestCurrentUserEmptyAndUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = svc.CurrentUser(ctx, "0000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, u)
}

// Blocking a user must kill their live sessions on the very next request,
// not at the next login.
func TestCurrentUserBlockedMidSession(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, sid, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	u := users.byID[1]
	u.IsBlocked = true
	users.byID[1] = u

	got, err := svc.CurrentUser(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCurrentUserDeletedMidSession(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	_, sid, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	delete(users.byID, 1)

	got, err := svc.CurrentUser(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, sid, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sid))

	u, err := svc.CurrentUser(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, u)
}
