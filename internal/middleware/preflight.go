package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cubazzar-relay/internal/config"
)

// Preflight answers every OPTIONS request with 204 and the configured CORS
// headers, whatever its path or headers. Nothing downstream runs for it.
//
// Echo's CORS middleware is not used because it only short-circuits when an
// Origin header is present and echoes request headers back instead of a fixed
// list.
func Preflight(cors config.CORSConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, cors.AllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, cors.AllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, cors.AllowHeaders)
			return c.NoContent(http.StatusNoContent)
		}
	}
}
