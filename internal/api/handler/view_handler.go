package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/core/service"
)

// Renderer maps client state to the view to draw.
type Renderer interface {
	Render(in service.RenderInput) service.ViewDescriptor
}

// ViewHandler renders the current view from navigation, cart and order state.
type ViewHandler struct {
	nav      ports.NavigationService
	cart     ports.CartService
	orders   ports.OrderService
	renderer Renderer
}

func NewViewHandler(nav ports.NavigationService, cart ports.CartService, orders ports.OrderService, renderer Renderer) *ViewHandler {
	return &ViewHandler{nav: nav, cart: cart, orders: orders, renderer: renderer}
}

func (h *ViewHandler) describe() service.ViewDescriptor {
	return h.renderer.Render(service.RenderInput{
		Navigation:  h.nav.State(),
		Cart:        h.cart.Snapshot(),
		Orders:      h.orders.Snapshot(),
		CartSyncing: h.cart.Pending() > 0,
	})
}

// Current handles GET /v1/view.
//
// @Summary      Render the current view
// @Tags         view
// @Produce      json
// @Success      200  {object}  service.ViewDescriptor
// @Router       /v1/view [get]
func (h *ViewHandler) Current(c echo.Context) error {
	return c.JSON(http.StatusOK, h.describe())
}
