package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

func farmerSession() domain.Session {
	return domain.Session{Role: domain.RoleFarmer, User: &domain.User{ID: "u-9", Role: domain.RoleFarmer}}
}

func TestSessionHandler_Login(t *testing.T) {
	nav := &stubNav{state: domain.NavigationState{CurrentView: domain.ViewLogin, ChosenRole: domain.RoleFarmer}}
	sessions := &stubSessions{session: farmerSession()}
	h := NewSessionHandler(sessions, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, rec := newContext(http.MethodPost, "/v1/session/login", `{"email":"ana@example.com","password":"secret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sessions.email != "ana@example.com" {
		t.Errorf("unexpected email %q", sessions.email)
	}
	if nav.session.Role != domain.RoleFarmer || nav.state.CurrentView != domain.ViewFarmerDashboard {
		t.Errorf("expected login completed on farmer dashboard, got %+v", nav.state)
	}
}

func TestSessionHandler_Login_Validation(t *testing.T) {
	nav := &stubNav{}
	h := NewSessionHandler(&stubSessions{}, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, _ := newContext(http.MethodPost, "/v1/session/login", `{"email":"not-an-email","password":""}`)
	err := h.Login(c)
	if httpCode(err) != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestSessionHandler_Login_Rejected(t *testing.T) {
	nav := &stubNav{state: domain.NavigationState{CurrentView: domain.ViewLogin}}
	sessions := &stubSessions{err: domain.ErrRemoteRejected}
	h := NewSessionHandler(sessions, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, _ := newContext(http.MethodPost, "/v1/session/login", `{"email":"ana@example.com","password":"nope"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrRemoteRejected) {
		t.Fatalf("expected ErrRemoteRejected, got %v", err)
	}
	if nav.session.IsAuthenticated() {
		t.Errorf("navigator must not receive a session")
	}
}

func TestSessionHandler_Login_OutsideLoginViewSkipsRemote(t *testing.T) {
	nav := &stubNav{state: domain.NavigationState{CurrentView: domain.ViewOnboarding}}
	sessions := &stubSessions{session: farmerSession()}
	h := NewSessionHandler(sessions, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, _ := newContext(http.MethodPost, "/v1/session/login", `{"email":"ana@example.com","password":"secret"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if sessions.logins != 0 {
		t.Errorf("remote login must not be attempted, got %d calls", sessions.logins)
	}
}

func TestSessionHandler_Login_RefusedSessionDiscardsCredential(t *testing.T) {
	nav := &stubNav{
		state: domain.NavigationState{CurrentView: domain.ViewLogin},
		err:   domain.ErrInvalidTransition,
	}
	sessions := &stubSessions{session: farmerSession()}
	h := NewSessionHandler(sessions, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, _ := newContext(http.MethodPost, "/v1/session/login", `{"email":"ana@example.com","password":"secret"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if sessions.discards != 1 {
		t.Errorf("expected the credential discarded once, got %d", sessions.discards)
	}
}

func TestSessionHandler_Register_MapsInput(t *testing.T) {
	nav := &stubNav{state: domain.NavigationState{CurrentView: domain.ViewLogin, ChosenRole: domain.RoleFarmer}}
	sessions := &stubSessions{session: farmerSession()}
	h := NewSessionHandler(sessions, nav, newView(nav, &stubCart{}, &stubOrders{}))

	body := `{"email":"ana@example.com","password":"secret1","full_name":" Ana ","role":"farmer","farm_name":"Green Acres"}`
	c, _ := newContext(http.MethodPost, "/v1/session/register", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	in := sessions.register
	if in.Role != domain.RoleFarmer || in.FullName != "Ana" || in.FarmName != "Green Acres" {
		t.Errorf("unexpected register input %+v", in)
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	nav := consumerAt(domain.ViewCart)
	h := NewSessionHandler(&stubSessions{}, nav, newView(nav, &stubCart{}, &stubOrders{}))

	c, rec := newContext(http.MethodPost, "/v1/session/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if nav.logouts != 1 || rec.Code != http.StatusOK {
		t.Errorf("expected one logout and 200, got %d (%d)", nav.logouts, rec.Code)
	}
}
