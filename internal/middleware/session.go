// Package middleware holds the Echo middlewares: session resolution, the
// auth/admin gates, rate limiting and the public response cache.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/auth"
	"github.com/nordwell/studio-api/internal/model"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session id.
const SessionCookie = "session_id"

const userContextKey = "current_user"

// Session resolves the session cookie into the current user and stores it
// on the request context. Anonymous requests pass through untouched; the
// gates below decide whether that is acceptable for a given route.
func Session(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			u, err := svc.CurrentUser(c.Request().Context(), cookie.Value)
			if err != nil {
				c.Logger().Errorf("session lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
			if u != nil {
				c.Set(userContextKey, u)
			}
			return next(c)
		}
	}
}

// UserFrom returns the authenticated user for this request, or nil.
func UserFrom(c echo.Context) *model.User {
	u, _ := c.Get(userContextKey).(*model.User)
	return u
}

// RequireAuth rejects requests that carry no valid session.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if UserFrom(c) == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		return next(c)
	}
}

// RequireAdmin rejects anonymous requests with 401 and authenticated
// non-admins with 403. The two cases are distinct: the first has no
// identity, the second has one without the permission.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		u := UserFrom(c)
		if u == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		if !u.IsAdmin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin access required"})
		}
		return next(c)
	}
}
