package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// CartHandler exposes the reconciling cart store.
type CartHandler struct {
	cart ports.CartService
}

func NewCartHandler(cart ports.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

func (h *CartHandler) render(c echo.Context, status int) error {
	snap := h.cart.Snapshot()
	return c.JSON(status, cartResponse{
		Lines:     snap.Lines,
		Version:   snap.Version,
		ItemCount: snap.ItemCount(),
		Subtotal:  snap.Subtotal(),
		Syncing:   h.cart.Pending() > 0,
	})
}

// Get handles GET /v1/cart.
//
// @Summary      Current cart snapshot
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	return h.render(c, http.StatusOK)
}

// AddItem handles POST /v1/cart/items.
//
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addItemRequest  true  "Product and quantity"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.cart.AddItem(c.Request().Context(), req.Product.toDomain(), req.Quantity); err != nil {
		return err
	}
	return h.render(c, http.StatusOK)
}

// UpdateQuantity handles PATCH /v1/cart/items/:line_id.
//
// @Summary      Change a line quantity by a delta
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        line_id  path      string                 true  "Cart line id"
// @Param        body     body      updateQuantityRequest  true  "Quantity delta"
// @Success      200      {object}  cartResponse
// @Failure      404      {object}  errorResponse
// @Failure      409      {object}  errorResponse
// @Router       /v1/cart/items/{line_id} [patch]
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var req updateQuantityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.cart.UpdateQuantity(c.Request().Context(), c.Param("line_id"), req.Delta); err != nil {
		return err
	}
	return h.render(c, http.StatusOK)
}

// Reload handles POST /v1/cart/reload.
//
// @Summary      Reload the cart from the remote store
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/cart/reload [post]
func (h *CartHandler) Reload(c echo.Context) error {
	if err := h.cart.Reload(c.Request().Context()); err != nil {
		return err
	}
	return h.render(c, http.StatusOK)
}
