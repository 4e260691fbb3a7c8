// Package router wires handlers to routes. Public content, the client
// dashboard and the admin surface are registered by separate functions so
// main reads as a table of contents.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/handler"
	"github.com/nordwell/studio-api/internal/middleware"
)

// RegisterRoutes registers the routes that carry no middleware at all.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints. The rate limiter guards the
// credential endpoints; everything else is unthrottled.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/api")

	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/forgot-password", a.ForgotPassword, limit)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/logout", a.Logout)

	g.GET("/user", a.Me, middleware.RequireAuth)
	g.PUT("/profile", a.UpdateProfile, middleware.RequireAuth)
}
