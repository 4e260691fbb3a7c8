package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/studio-api/internal/auth"
	"github.com/nordwell/studio-api/internal/billing"
	"github.com/nordwell/studio-api/internal/config"
	"github.com/nordwell/studio-api/internal/middleware"
	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/repository"
)

// api is the test fixture: a full route table over a mocked database and an
// in-process session store. Tests seed sessions directly and add one user
// lookup expectation per authenticated request, because session resolution
// re-reads the user every time.
type api struct {
	e        *echo.Echo
	mock     sqlmock.Sqlmock
	sessions *auth.MemoryStore
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repository.NewUserRepo(db)
	sessions := auth.NewMemoryStore(time.Hour)
	svc := auth.NewService(users, sessions)

	services := repository.NewServiceRepo(db)
	projects := repository.NewProjectRepo(db)
	invoices := repository.NewInvoiceRepo(db)

	authH := NewAuthHandler(config.Config{SessionTTL: time.Hour}, users, svc)
	blogH := NewBlogHandler(repository.NewBlogRepo(db))
	serviceH := NewServiceHandler(services)
	projectH := NewProjectHandler(projects)
	invoiceH := NewInvoiceHandler(invoices, projects, billing.NewEngine(db, invoices))
	userH := NewUserHandler(users)

	e := echo.New()
	e.Use(middleware.Session(svc))

	e.POST("/api/register", authH.Register)
	e.POST("/api/logout", authH.Logout)
	e.PUT("/api/profile", authH.UpdateProfile, middleware.RequireAuth)
	e.GET("/api/blog", blogH.List)
	e.GET("/api/blog/:slug", blogH.Get)
	e.GET("/api/projects/:id", projectH.Get, middleware.RequireAuth)
	e.GET("/api/invoices/:id", invoiceH.Get, middleware.RequireAuth)

	g := e.Group("/api/admin", middleware.RequireAdmin)
	g.GET("/users", userH.List)
	g.POST("/services", serviceH.Create)
	g.POST("/blog", blogH.Create)

	return &api{e: e, mock: mock, sessions: sessions}
}

func (a *api) login(t *testing.T, userID uint64) string {
	t.Helper()
	sid, err := a.sessions.Create(context.Background(), userID)
	require.NoError(t, err)
	return sid
}

// expectSessionUser queues the user lookup the session middleware performs.
func (a *api) expectSessionUser(u model.User) {
	now := time.Now()
	a.mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\? LIMIT 1`).
		WithArgs(u.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email",
			"phone", "is_admin", "is_verified", "is_blocked", "photo_url", "bio", "website",
			"created_at", "updated_at"}).
			AddRow(u.ID, u.Username, "hash", u.Email, "", u.IsAdmin, false, u.IsBlocked, nil, nil, nil, now, now))
}

func (a *api) request(method, path, sid, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sid})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

var (
	clientUser = model.User{ID: 10, Username: "client", Email: "client@example.com"}
	otherUser  = model.User{ID: 11, Username: "other", Email: "other@example.com"}
	adminUser  = model.User{ID: 1, Username: "boss", Email: "boss@example.com", IsAdmin: true}
)

func blogRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "slug", "excerpt", "content", "cover_url",
		"author_id", "published", "published_at", "created_at", "updated_at"})
}

// Anonymous listings only ever query published posts; an admin session
// lifts the filter.
func TestBlogListVisibility(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	a.mock.ExpectQuery(`SELECT .+ FROM blog_posts WHERE published=1 ORDER BY created_at DESC`).
		WillReturnRows(blogRows().AddRow(1, "Hello", "hello", "", "", nil, nil, true, now, now, now))
	rec := a.request(http.MethodGet, "/api/blog", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"hello"`)

	sid := a.login(t, adminUser.ID)
	a.expectSessionUser(adminUser)
	a.mock.ExpectQuery(`SELECT .+ FROM blog_posts ORDER BY created_at DESC`).
		WillReturnRows(blogRows().
			AddRow(1, "Hello", "hello", "", "", nil, nil, true, now, now, now).
			AddRow(2, "Draft", "draft", "", "", nil, nil, false, nil, now, now))
	rec = a.request(http.MethodGet, "/api/blog", sid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"draft"`)

	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// An unpublished slug answers 404 to anonymous readers, exactly like a
// missing one.
func TestBlogGetDraftHidden(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	a.mock.ExpectQuery(`SELECT .+ FROM blog_posts WHERE slug=\? LIMIT 1`).
		WithArgs("draft").
		WillReturnRows(blogRows().AddRow(2, "Draft", "draft", "", "", nil, nil, false, nil, now, now))

	rec := a.request(http.MethodGet, "/api/blog/draft", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Draft")
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// The owning client reads their invoice; another client gets 403 with no
// invoice data; a missing invoice is 404.
func TestInvoiceGetOwnership(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	invoiceCols := []string{"id", "project_id", "invoice_number", "amount", "currency", "status",
		"issue_date", "due_date", "payment_date", "payment_reference", "notes", "created_at", "updated_at"}
	itemCols := []string{"id", "invoice_id", "description", "quantity", "unit_price", "tax_rate", "tax_amount", "amount"}
	payCols := []string{"id", "invoice_id", "amount", "payment_date", "payment_method", "transaction_id", "created_at"}

	// owner
	sid := a.login(t, clientUser.ID)
	a.expectSessionUser(clientUser)
	a.mock.ExpectQuery(`SELECT project_id FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(3))
	a.mock.ExpectQuery(`SELECT user_id FROM projects WHERE id=\? LIMIT 1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(clientUser.ID))
	a.mock.ExpectQuery(`SELECT .+ FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(5, 3, "INV-20260830-abcd1234", "100.00", "USD", "unpaid", now, now, nil, nil, "", now, now))
	a.mock.ExpectQuery(`SELECT .+ FROM invoice_items WHERE invoice_id=\? ORDER BY id`).
		WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows(itemCols))
	a.mock.ExpectQuery(`SELECT .+ FROM payments WHERE invoice_id=\? ORDER BY payment_date, id`).
		WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows(payCols))

	rec := a.request(http.MethodGet, "/api/invoices/5", sid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "INV-20260830-abcd1234")

	// another client: forbidden, and no invoice content in the body
	otherSID := a.login(t, otherUser.ID)
	a.expectSessionUser(otherUser)
	a.mock.ExpectQuery(`SELECT project_id FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(3))
	a.mock.ExpectQuery(`SELECT user_id FROM projects WHERE id=\? LIMIT 1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(clientUser.ID))

	rec = a.request(http.MethodGet, "/api/invoices/5", otherSID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "INV-")

	// missing invoice
	a.expectSessionUser(clientUser)
	a.mock.ExpectQuery(`SELECT project_id FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	rec = a.request(http.MethodGet, "/api/invoices/99", sid, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// A client reading someone else's project gets 403, not 404 and not data.
func TestProjectGetForbiddenForNonOwner(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	sid := a.login(t, otherUser.ID)
	a.expectSessionUser(otherUser)
	a.mock.ExpectQuery(`SELECT .+ FROM projects WHERE id=\? LIMIT 1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "legacy_name", "status",
			"start_date", "end_date", "completion_percentage", "created_at", "updated_at"}).
			AddRow(3, clientUser.ID, "Website Redesign", nil, "in_progress", nil, nil, 60, now, now))

	rec := a.request(http.MethodGet, "/api/projects/3", sid, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Website Redesign")
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// The admin gate: 401 without identity, 403 with a non-admin one.
func TestAdminGateOnUsers(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	rec := a.request(http.MethodGet, "/api/admin/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	clientSID := a.login(t, clientUser.ID)
	a.expectSessionUser(clientUser)
	rec = a.request(http.MethodGet, "/api/admin/users", clientSID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminSID := a.login(t, adminUser.ID)
	a.expectSessionUser(adminUser)
	a.mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email",
			"phone", "is_admin", "is_verified", "is_blocked", "photo_url", "bio", "website",
			"created_at", "updated_at"}).
			AddRow(10, "client", "secret-hash", "client@example.com", "", false, false, false, nil, nil, nil, now, now))
	rec = a.request(http.MethodGet, "/api/admin/users", adminSID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	// hashes never leave the server
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// A taken username rejects registration with 400 and a specific message.
func TestRegisterDuplicateUsernameIsBadRequest(t *testing.T) {
	a := newAPI(t)

	dup := errors.New(`Error 1062 (23000): Duplicate entry 'client' for key 'users.uq_users_username'`)
	a.mock.ExpectExec(`INSERT INTO users`).WillReturnError(dup)

	rec := a.request(http.MethodPost, "/api/register", "",
		`{"username":"client","password":"hunter2","email":"client2@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username already exists")
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// Logout answers 200 and the session is dead afterwards.
func TestLogoutReturnsOKAndKillsSession(t *testing.T) {
	a := newAPI(t)

	sid := a.login(t, clientUser.ID)
	a.expectSessionUser(clientUser)

	rec := a.request(http.MethodPost, "/api/logout", sid, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logged out")

	_, err := a.sessions.Get(context.Background(), sid)
	assert.ErrorIs(t, err, auth.ErrNoSession)
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// A verified account changing its email is a 400, not a conflict.
func TestProfileUpdateVerifiedLockIsBadRequest(t *testing.T) {
	a := newAPI(t)
	now := time.Now()

	sid := a.login(t, clientUser.ID)
	a.expectSessionUser(clientUser)
	a.mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\? LIMIT 1`).
		WithArgs(clientUser.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email",
			"phone", "is_admin", "is_verified", "is_blocked", "photo_url", "bio", "website",
			"created_at", "updated_at"}).
			AddRow(clientUser.ID, "client", "hash", "client@example.com", "", false, true, false, nil, nil, nil, now, now))

	rec := a.request(http.MethodPut, "/api/profile", sid, `{"email":"new@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot change email")
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// Blog slugs are author-chosen; a duplicate rejects with 400.
func TestBlogCreateDuplicateSlugIsBadRequest(t *testing.T) {
	a := newAPI(t)

	sid := a.login(t, adminUser.ID)
	a.expectSessionUser(adminUser)

	dup := errors.New(`Error 1062 (23000): Duplicate entry 'hello' for key 'blog_posts.uq_blog_posts_slug'`)
	a.mock.ExpectExec(`INSERT INTO blog_posts`).WillReturnError(dup)

	rec := a.request(http.MethodPost, "/api/admin/blog", sid,
		`{"title":"Hello","slug":"hello","content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "slug already exists")
	assert.NoError(t, a.mock.ExpectationsWereMet())
}

// A colliding service slug comes back modified instead of failing.
func TestServiceCreateReturnsDedupedSlug(t *testing.T) {
	a := newAPI(t)

	sid := a.login(t, adminUser.ID)
	a.expectSessionUser(adminUser)

	dup := errors.New(`Error 1062 (23000): Duplicate entry 'consulting' for key 'services.uq_services_slug'`)
	a.mock.ExpectExec(`INSERT INTO services`).
		WillReturnError(dup)
	a.mock.ExpectExec(`INSERT INTO services`).
		WillReturnResult(sqlmock.NewResult(2, 1))

	rec := a.request(http.MethodPost, "/api/admin/services", sid,
		`{"title":"Consulting","slug":"consulting","active":true}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"consulting-`)
	assert.NoError(t, a.mock.ExpectationsWereMet())
}
