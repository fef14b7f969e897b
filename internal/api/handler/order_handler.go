package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// OrderHandler exposes the order tracker.
type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) render(c echo.Context) error {
	snap := h.orders.Snapshot()
	orders := snap.Orders
	if orders == nil {
		orders = []domain.Order{}
	}
	return c.JSON(http.StatusOK, ordersResponse{
		Orders:    orders,
		Version:   snap.Version,
		CanManage: canManageOrders(ctxRole(c)),
	})
}

// List handles GET /v1/orders.
//
// @Summary      Current order snapshot
// @Tags         orders
// @Produce      json
// @Success      200  {object}  ordersResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	return h.render(c)
}

// UpdateStatus handles PATCH /v1/orders/:order_id/status.
//
// @Summary      Advance an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path      string              true  "Order id"
// @Param        body      body      orderStatusRequest  true  "Target status"
// @Success      200       {object}  ordersResponse
// @Failure      400       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/orders/{order_id}/status [patch]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req orderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
	}
	if err := h.orders.UpdateStatus(c.Request().Context(), c.Param("order_id"), status); err != nil {
		return err
	}
	return h.render(c)
}

// Cancel handles POST /v1/orders/:order_id/cancel.
//
// @Summary      Cancel an order
// @Tags         orders
// @Produce      json
// @Param        order_id  path      string  true  "Order id"
// @Success      200       {object}  ordersResponse
// @Failure      404       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/orders/{order_id}/cancel [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	if err := h.orders.Cancel(c.Request().Context(), c.Param("order_id")); err != nil {
		return err
	}
	return h.render(c)
}
