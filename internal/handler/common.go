// Package handler contains the HTTP handlers. Each handler bundles the
// repositories it needs; authorization decisions that depend on ownership
// happen here, on top of the identity the session middleware resolved.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// reqCtx bounds every database call made on behalf of a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// pathID parses a numeric path parameter. Zero means malformed.
func pathID(c echo.Context, name string) uint64 {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
