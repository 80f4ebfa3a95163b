// Package middleware provides Echo middleware for logging, metrics, CORS
// preflight and security headers.
package middleware

import (
	"github.com/labstack/echo/v4"

	"cubazzar-relay/internal/headers"
)

// SecurityHeaders returns an Echo middleware that strips hop-by-hop headers
// from the inbound request and sets baseline security headers on the
// response. Relayed upstream headers of the same name replace these.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			headers.Strip(c.Request().Header, headers.ProxyHopByHop)

			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")

			return next(c)
		}
	}
}
