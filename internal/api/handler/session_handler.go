package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// SessionHandler signs users in and out and hands the session to the navigator.
type SessionHandler struct {
	sessions ports.SessionService
	nav      ports.NavigationService
	view     *ViewHandler
}

func NewSessionHandler(sessions ports.SessionService, nav ports.NavigationService, view *ViewHandler) *SessionHandler {
	return &SessionHandler{sessions: sessions, nav: nav, view: view}
}

// Login handles POST /v1/session/login.
//
// @Summary      Sign in from the login view
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  navigationResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.requireLoginView(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	session, err := h.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.complete(c, session)
}

// Register handles POST /v1/session/register.
//
// @Summary      Create an account and sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account"
// @Success      200   {object}  navigationResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}
	if err := h.requireLoginView(); err != nil {
		return err
	}

	session, err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Email:           strings.TrimSpace(req.Email),
		Password:        req.Password,
		FullName:        strings.TrimSpace(req.FullName),
		Role:            role,
		Phone:           req.Phone,
		FarmName:        req.FarmName,
		FarmLocation:    req.FarmLocation,
		FarmDescription: req.FarmDescription,
	})
	if err != nil {
		return err
	}
	return h.complete(c, session)
}

// requireLoginView refuses to sign in anywhere but the login view, before
// any credential is fetched and stored.
func (h *SessionHandler) requireLoginView() error {
	if from := h.nav.State().CurrentView; from != domain.ViewLogin {
		return fmt.Errorf("sign in from %s: %w", from, domain.ErrInvalidTransition)
	}
	return nil
}

// complete hands session to the navigator. A session the navigator refuses
// must not leave its credential behind.
func (h *SessionHandler) complete(c echo.Context, session domain.Session) error {
	ctx := c.Request().Context()
	t, err := h.nav.CompleteLogin(ctx, session)
	if err != nil {
		if derr := h.sessions.Discard(ctx); derr != nil {
			return errors.Join(err, derr)
		}
		return err
	}
	return c.JSON(http.StatusOK, navigationResponse{
		Transition: transitionResponse{From: t.From, To: t.To, ResetScroll: t.ResetScroll},
		View:       h.view.describe(),
	})
}

// Logout handles POST /v1/session/logout.
//
// @Summary      Sign out and return to onboarding
// @Tags         session
// @Produce      json
// @Success      200  {object}  navigationResponse
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	t, err := h.nav.Logout(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, navigationResponse{
		Transition: transitionResponse{From: t.From, To: t.To, ResetScroll: t.ResetScroll},
		View:       h.view.describe(),
	})
}
