// Package middleware provides reusable HTTP middleware: bearer-token
// authentication, role enforcement, rate limiting and response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/utils"
)

const principalKey = "principal"

// JWTAuth validates the Bearer access token on every request and stores
// the resulting Principal in the Echo context. Claims are parsed exactly
// once here; handlers receive the resolved identity through Principal(c)
// and never touch the token again.
func JWTAuth(cfg utils.TokenConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.VerifyAccessToken(cfg, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(principalKey, model.Principal{UserID: claims.UserID, Role: claims.Role})
			return next(c)
		}
	}
}

// Principal returns the authenticated caller stored by JWTAuth.
func Principal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}
