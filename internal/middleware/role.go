package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
)

// RequireRole aborts with 403 unless the authenticated principal's role is
// in the allowed set. Assumes JWTAuth ran earlier in the chain.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok || !allowed[p.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
