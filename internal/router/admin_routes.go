package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/handler"
	"github.com/nordwell/studio-api/internal/middleware"
)

// RegisterAdmin registers the admin surface under /api/admin. The gate
// answers 401 to anonymous callers and 403 to authenticated non-admins.
func RegisterAdmin(e *echo.Echo, u *handler.UserHandler, b *handler.BlogHandler,
	s *handler.ServiceHandler, ca *handler.CareerHandler, p *handler.PartnerHandler,
	m *handler.MessageHandler, pr *handler.ProjectHandler, inv *handler.InvoiceHandler) {

	g := e.Group("/api/admin", middleware.RequireAdmin)

	// ---- Accounts ----
	g.GET("/users", u.List)
	g.PUT("/users/:id/verify", u.Verify)
	g.PUT("/users/:id/block", u.Block)
	g.PUT("/users/:id/unblock", u.Unblock)

	// ---- Blog ----
	g.GET("/blog", b.List)
	g.POST("/blog", b.Create)
	g.PUT("/blog/:id", b.Update)
	g.DELETE("/blog/:id", b.Delete)

	// ---- Services ----
	g.GET("/services", s.List)
	g.POST("/services", s.Create)
	g.PUT("/services/:id", s.Update)
	g.DELETE("/services/:id", s.Delete)

	// ---- Careers ----
	g.GET("/careers", ca.List)
	g.POST("/careers", ca.Create)
	g.PUT("/careers/:id", ca.Update)
	g.DELETE("/careers/:id", ca.Delete)
	g.GET("/applications", ca.ListApplications)

	// ---- Partners ----
	g.POST("/partners", p.Create)
	g.PUT("/partners/:id", p.Update)
	g.DELETE("/partners/:id", p.Delete)

	// ---- Messages ----
	g.GET("/messages", m.List)
	g.GET("/messages/:id", m.Get)
	g.DELETE("/messages/:id", m.Delete)

	// ---- Projects ----
	g.GET("/projects", pr.List)
	g.POST("/projects", pr.Create)
	g.PUT("/projects/:id", pr.Update)
	g.DELETE("/projects/:id", pr.Delete)
	g.POST("/projects/:id/updates", pr.CreateUpdate)
	g.DELETE("/updates/:id", pr.DeleteUpdate)

	// ---- Invoices ----
	g.POST("/projects/:id/invoices", inv.Create)
	g.PUT("/invoices/:id", inv.Update)
	g.DELETE("/invoices/:id", inv.Delete)
	g.PUT("/invoices/:id/status", inv.SetStatus)
	g.POST("/invoices/:id/items", inv.AddItem)
	g.DELETE("/invoices/items/:id", inv.DeleteItem)
	g.POST("/invoices/:id/payments", inv.AddPayment)
	g.DELETE("/invoices/payments/:id", inv.DeletePayment)
}
