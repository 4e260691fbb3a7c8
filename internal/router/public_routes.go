package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/handler"
)

// RegisterPublic registers the marketing-site content endpoints. All are
// anonymous reads except the contact form and career applications, which
// accept anonymous writes. The cache middleware covers the GETs.
func RegisterPublic(e *echo.Echo, b *handler.BlogHandler, s *handler.ServiceHandler,
	ca *handler.CareerHandler, p *handler.PartnerHandler, m *handler.MessageHandler,
	cache echo.MiddlewareFunc) {

	g := e.Group("/api")

	g.GET("/blog", b.List, cache)
	g.GET("/blog/:slug", b.Get, cache)

	g.GET("/services", s.List, cache)
	g.GET("/services/:slug", s.Get, cache)

	g.GET("/careers", ca.List, cache)
	g.GET("/careers/:id", ca.Get, cache)
	g.POST("/careers/:id/apply", ca.Apply)

	g.GET("/partners", p.List, cache)

	g.POST("/contact", m.Contact)
}
