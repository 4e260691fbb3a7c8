package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/handler"
	"github.com/nordwell/studio-api/internal/middleware"
)

// RegisterClient registers the dashboard endpoints. Everything here needs a
// session; ownership checks happen inside the handlers because admins share
// these routes.
func RegisterClient(e *echo.Echo, pr *handler.ProjectHandler, inv *handler.InvoiceHandler) {
	g := e.Group("/api", middleware.RequireAuth)

	g.GET("/projects", pr.List)
	g.GET("/projects/:id", pr.Get)
	g.GET("/projects/:id/updates", pr.ListUpdates)

	g.GET("/projects/:id/invoices", inv.ListByProject)
	g.GET("/invoices/:id", inv.Get)
}
