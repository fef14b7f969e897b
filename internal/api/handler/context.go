package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// ctxRole returns the role stored by the RequireRole middleware, or RoleNone
// when the route is not guarded.
func ctxRole(c echo.Context) domain.Role {
	role, _ := c.Get("role").(domain.Role)
	return role
}

// canManageOrders reports whether role may move orders through fulfilment.
func canManageOrders(role domain.Role) bool {
	return role == domain.RoleFarmer || role == domain.RoleAdmin
}
