package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// NavigationHandler drives the view state machine. Every accepted transition
// answers with the freshly rendered view.
type NavigationHandler struct {
	nav  ports.NavigationService
	view *ViewHandler
}

func NewNavigationHandler(nav ports.NavigationService, view *ViewHandler) *NavigationHandler {
	return &NavigationHandler{nav: nav, view: view}
}

func (h *NavigationHandler) respond(c echo.Context, t domain.Transition) error {
	return c.JSON(http.StatusOK, navigationResponse{
		Transition: transitionResponse{From: t.From, To: t.To, ResetScroll: t.ResetScroll},
		View:       h.view.describe(),
	})
}

// SelectRole handles POST /v1/navigation/role.
//
// @Summary      Pick a role on onboarding
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Param        body  body      selectRoleRequest  true  "Role"
// @Success      200   {object}  navigationResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/navigation/role [post]
func (h *NavigationHandler) SelectRole(c echo.Context) error {
	var req selectRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	t, err := h.nav.SelectRole(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return h.respond(c, t)
}

// Navigate handles POST /v1/navigation/navigate.
//
// @Summary      Move to a view
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Param        body  body      navigateRequest  true  "Target view"
// @Success      200   {object}  navigationResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/navigation/navigate [post]
func (h *NavigationHandler) Navigate(c echo.Context) error {
	var req navigateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	t, err := h.nav.Navigate(c.Request().Context(), domain.View(req.View))
	if err != nil {
		return err
	}
	return h.respond(c, t)
}

// Back handles POST /v1/navigation/back.
//
// @Summary      Return from login to onboarding
// @Tags         navigation
// @Produce      json
// @Success      200  {object}  navigationResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/navigation/back [post]
func (h *NavigationHandler) Back(c echo.Context) error {
	t, err := h.nav.Back(c.Request().Context())
	if err != nil {
		return err
	}
	return h.respond(c, t)
}

// SelectProduct handles POST /v1/navigation/product.
//
// @Summary      Open product details
// @Tags         navigation
// @Accept       json
// @Produce      json
// @Param        body  body      productRequest  true  "Product"
// @Success      200   {object}  navigationResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/navigation/product [post]
func (h *NavigationHandler) SelectProduct(c echo.Context) error {
	var req productRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	t, err := h.nav.SelectProduct(c.Request().Context(), req.toDomain())
	if err != nil {
		return err
	}
	return h.respond(c, t)
}
