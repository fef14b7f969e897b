package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/core/service"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

// --- Navigation ---

type stubNav struct {
	state domain.NavigationState
	err   error

	role    domain.Role
	view    domain.View
	product domain.Product
	session domain.Session
	logouts int
}

func (s *stubNav) move(to domain.View) (domain.Transition, error) {
	if s.err != nil {
		return domain.Transition{}, s.err
	}
	t := domain.Transition{From: s.state.CurrentView, To: to, ResetScroll: true}
	s.state.CurrentView = to
	return t, nil
}

func (s *stubNav) SelectRole(_ context.Context, role domain.Role) (domain.Transition, error) {
	s.role = role
	s.state.ChosenRole = role
	return s.move(domain.ViewLogin)
}

func (s *stubNav) CompleteLogin(_ context.Context, session domain.Session) (domain.Transition, error) {
	s.session = session
	s.state.Session = session
	return s.move(domain.HomeView(session.Role))
}

func (s *stubNav) Logout(context.Context) (domain.Transition, error) {
	s.logouts++
	s.state = domain.NavigationState{}
	return s.move(domain.ViewOnboarding)
}

func (s *stubNav) SelectProduct(_ context.Context, p domain.Product) (domain.Transition, error) {
	s.product = p
	s.state.SelectedProduct = &p
	return s.move(domain.ViewProductDetails)
}

func (s *stubNav) Navigate(_ context.Context, to domain.View) (domain.Transition, error) {
	s.view = to
	return s.move(to)
}

func (s *stubNav) Back(context.Context) (domain.Transition, error) {
	return s.move(domain.ViewOnboarding)
}

func (s *stubNav) State() domain.NavigationState { return s.state }

func consumerAt(view domain.View) *stubNav {
	return &stubNav{state: domain.NavigationState{
		CurrentView: view,
		ChosenRole:  domain.RoleConsumer,
		Session:     domain.Session{Role: domain.RoleConsumer, User: &domain.User{ID: "u-1", Role: domain.RoleConsumer}},
	}}
}

// --- Cart ---

type stubCart struct {
	snap    domain.CartSnapshot
	pending int
	err     error

	added    domain.Product
	addedQty int
	lineID   string
	delta    int
	reloads  int
}

func (s *stubCart) AddItem(_ context.Context, p domain.Product, qty int) error {
	s.added, s.addedQty = p, qty
	return s.err
}

func (s *stubCart) UpdateQuantity(_ context.Context, lineID string, delta int) error {
	s.lineID, s.delta = lineID, delta
	return s.err
}

func (s *stubCart) Reload(context.Context) error {
	s.reloads++
	return s.err
}

func (s *stubCart) Clear()                        {}
func (s *stubCart) Snapshot() domain.CartSnapshot { return s.snap }
func (s *stubCart) Pending() int                  { return s.pending }

// --- Orders ---

type stubOrders struct {
	snap domain.OrderSnapshot
	err  error

	orderID   string
	status    domain.OrderStatus
	cancelled string
}

func (s *stubOrders) Reload(context.Context) error { return s.err }

func (s *stubOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	s.orderID, s.status = id, status
	return s.err
}

func (s *stubOrders) Cancel(_ context.Context, id string) error {
	s.cancelled = id
	return s.err
}

func (s *stubOrders) Clear()                         {}
func (s *stubOrders) Snapshot() domain.OrderSnapshot { return s.snap }

// --- Session ---

type stubSessions struct {
	session  domain.Session
	err      error
	email    string
	register ports.RegisterInput
	logins   int
	discards int
}

func (s *stubSessions) Login(_ context.Context, email, _ string) (domain.Session, error) {
	s.email = email
	s.logins++
	return s.session, s.err
}

func (s *stubSessions) Register(_ context.Context, in ports.RegisterInput) (domain.Session, error) {
	s.register = in
	return s.session, s.err
}

func (s *stubSessions) Restore(context.Context) (domain.Session, error) { return s.session, s.err }

func (s *stubSessions) Discard(context.Context) error {
	s.discards++
	return nil
}

func newView(nav ports.NavigationService, cart ports.CartService, orders ports.OrderService) *ViewHandler {
	return NewViewHandler(nav, cart, orders, service.NewDispatcher(domain.Product{ID: "featured", Name: "Box"}))
}
