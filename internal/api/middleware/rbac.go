package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// SessionSource exposes the navigator state that carries the active session.
type SessionSource interface {
	State() domain.NavigationState
}

// RequireRole enforces role-based access control against the current session.
// With no roles given, any authenticated session is accepted.
func RequireRole(src SessionSource, allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := src.State().Session
			if !session.IsAuthenticated() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not signed in"})
			}
			if len(allowed) > 0 {
				if _, ok := allowed[session.Role]; !ok {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
			}
			c.Set("role", session.Role)
			return next(c)
		}
	}
}
