package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/studio-api/internal/auth"
	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

type stubUsers struct {
	users map[uint64]model.User
}

func (s *stubUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func setupGate(t *testing.T) (*echo.Echo, *auth.Service, *stubUsers) {
	t.Helper()
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	users := &stubUsers{users: map[uint64]model.User{
		1: {ID: 1, Username: "client", PasswordHash: hash},
		2: {ID: 2, Username: "boss", PasswordHash: hash, IsAdmin: true},
	}}
	svc := auth.NewService(users, auth.NewMemoryStore(time.Hour))

	e := echo.New()
	e.Use(Session(svc))
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, UserFrom(c).Public())
	}, RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireAdmin)
	return e, svc, users
}

func login(t *testing.T, svc *auth.Service, username string) string {
	t.Helper()
	_, sid, err := svc.Login(context.Background(), username, "pw")
	require.NoError(t, err)
	return sid
}

func doGet(e *echo.Echo, path, sid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthWithoutCookie(t *testing.T) {
	e, _, _ := setupGate(t)
	rec := doGet(e, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthWithBogusCookie(t *testing.T) {
	e, _, _ := setupGate(t)
	rec := doGet(e, "/me", "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionResolvesUser(t *testing.T) {
	e, svc, _ := setupGate(t)
	sid := login(t, svc, "client")

	rec := doGet(e, "/me", sid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"client"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestBlockedUserLosesSessionImmediately(t *testing.T) {
	e, svc, users := setupGate(t)
	sid := login(t, svc, "client")

	require.Equal(t, http.StatusOK, doGet(e, "/me", sid).Code)

	u := users.users[1]
	u.IsBlocked = true
	users.users[1] = u

	assert.Equal(t, http.StatusUnauthorized, doGet(e, "/me", sid).Code)
}

func TestRequireAdmin(t *testing.T) {
	e, svc, _ := setupGate(t)

	// no identity at all
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "/admin", "").Code)

	// identity without the permission
	clientSID := login(t, svc, "client")
	assert.Equal(t, http.StatusForbidden, doGet(e, "/admin", clientSID).Code)

	adminSID := login(t, svc, "boss")
	assert.Equal(t, http.StatusOK, doGet(e, "/admin", adminSID).Code)
}
