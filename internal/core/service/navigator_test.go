package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubRevoker struct {
	calls int
	err   error
}

func (r *stubRevoker) ClearCredentials(_ context.Context) error {
	r.calls++
	return r.err
}

type stubResetter struct{ cleared int }

func (r *stubResetter) Clear() { r.cleared++ }

func sessionFor(role domain.Role) domain.Session {
	return domain.Session{Role: role, User: &domain.User{ID: "u-1", Email: "ana@example.com", Role: role}}
}

// loggedIn drives a fresh navigator through onboarding and login as role.
func loggedIn(t *testing.T, role domain.Role, resetters ...*stubResetter) (*Navigator, *stubRevoker) {
	t.Helper()
	revoker := &stubRevoker{}
	rs := make([]ports.Resetter, 0, len(resetters))
	for _, r := range resetters {
		rs = append(rs, r)
	}
	nav := NewNavigator(revoker, discardLogger, rs...)
	ctx := context.Background()
	if _, err := nav.SelectRole(ctx, role); err != nil {
		t.Fatalf("select role: %v", err)
	}
	if _, err := nav.CompleteLogin(ctx, sessionFor(role)); err != nil {
		t.Fatalf("complete login: %v", err)
	}
	return nav, revoker
}

// ---------------------------------------------------------------------------
// Onboarding and login
// ---------------------------------------------------------------------------

func TestNavigator_InitialState(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)
	s := nav.State()

	if s.CurrentView != domain.ViewOnboarding {
		t.Errorf("expected onboarding, got %q", s.CurrentView)
	}
	if s.Session.IsAuthenticated() {
		t.Errorf("initial session must be unauthenticated")
	}
}

func TestNavigator_SelectRole_MovesToLogin(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	tr, err := nav.SelectRole(context.Background(), domain.RoleFarmer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.From != domain.ViewOnboarding || tr.To != domain.ViewLogin || !tr.ResetScroll {
		t.Errorf("unexpected transition %+v", tr)
	}
	s := nav.State()
	if s.ChosenRole != domain.RoleFarmer {
		t.Errorf("expected chosen role farmer, got %q", s.ChosenRole)
	}
	if s.Session.IsAuthenticated() {
		t.Errorf("selecting a role must not authenticate")
	}
}

func TestNavigator_SelectRole_StoresCanonicalRole(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	if _, err := nav.SelectRole(context.Background(), domain.Role(" Consumer ")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := nav.State().ChosenRole; got != domain.RoleConsumer {
		t.Errorf("expected chosen role %q, got %q", domain.RoleConsumer, got)
	}
}

func TestNavigator_SelectRole_Invalid(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	if _, err := nav.SelectRole(context.Background(), domain.Role("pirate")); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if nav.State().CurrentView != domain.ViewOnboarding {
		t.Errorf("state must be unchanged")
	}
}

func TestNavigator_CompleteLogin_LandsOnRoleHome(t *testing.T) {
	cases := []struct {
		role domain.Role
		want domain.View
	}{
		{domain.RoleConsumer, domain.ViewConsumerHome},
		{domain.RoleFarmer, domain.ViewFarmerDashboard},
		{domain.RoleAdmin, domain.ViewAdminDashboard},
	}
	for _, tc := range cases {
		nav, _ := loggedIn(t, tc.role)
		if got := nav.State().CurrentView; got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.role, tc.want, got)
		}
	}
}

func TestNavigator_CompleteLogin_RequiresAuthenticatedSession(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)
	ctx := context.Background()
	_, _ = nav.SelectRole(ctx, domain.RoleConsumer)

	_, err := nav.CompleteLogin(ctx, domain.Session{Role: domain.RoleConsumer})
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if nav.State().CurrentView != domain.ViewLogin {
		t.Errorf("state must be unchanged")
	}
}

func TestNavigator_CompleteLogin_OnlyFromLogin(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	_, err := nav.CompleteLogin(context.Background(), sessionFor(domain.RoleConsumer))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNavigator_CompleteLogin_AuthenticatedRoleWins(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)
	ctx := context.Background()
	_, _ = nav.SelectRole(ctx, domain.RoleConsumer)

	if _, err := nav.CompleteLogin(ctx, sessionFor(domain.RoleFarmer)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := nav.State().CurrentView; got != domain.ViewFarmerDashboard {
		t.Errorf("expected farmer dashboard, got %q", got)
	}
}

func TestNavigator_Back(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)
	ctx := context.Background()

	if _, err := nav.Back(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("back from onboarding: expected ErrInvalidTransition, got %v", err)
	}
	_, _ = nav.SelectRole(ctx, domain.RoleAdmin)
	if _, err := nav.Back(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.State().CurrentView != domain.ViewOnboarding {
		t.Errorf("expected onboarding")
	}
}

func TestNavigator_Resume(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	if _, err := nav.Resume(context.Background(), sessionFor(domain.RoleAdmin)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := nav.State().CurrentView; got != domain.ViewAdminDashboard {
		t.Errorf("expected admin dashboard, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Role gating
// ---------------------------------------------------------------------------

func TestNavigator_ConsumerCannotReachAdminDashboard(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleConsumer)
	_, _ = nav.Navigate(context.Background(), domain.ViewCart)
	before := nav.State()

	_, err := nav.Navigate(context.Background(), domain.ViewAdminDashboard)
	if !errors.Is(err, domain.ErrUnauthorizedTransition) {
		t.Fatalf("expected ErrUnauthorizedTransition, got %v", err)
	}
	if !reflect.DeepEqual(before, nav.State()) {
		t.Errorf("state changed after rejected transition:\nbefore: %+v\nafter:  %+v", before, nav.State())
	}
}

func TestNavigator_UnauthenticatedReachesPublicViewsOnly(t *testing.T) {
	nav := NewNavigator(nil, discardLogger)

	for _, v := range domain.AllViews {
		if v.IsPublic() {
			continue
		}
		if _, err := nav.Navigate(context.Background(), v); !errors.Is(err, domain.ErrUnauthorizedTransition) {
			t.Errorf("%s: expected ErrUnauthorizedTransition, got %v", v, err)
		}
	}
}

func TestNavigator_Navigate_WithinGroup(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleFarmer)

	tr, err := nav.Navigate(context.Background(), domain.ViewFarmerWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.From != domain.ViewFarmerDashboard || tr.To != domain.ViewFarmerWallet || !tr.ResetScroll {
		t.Errorf("unexpected transition %+v", tr)
	}
}

func TestNavigator_Navigate_UnknownView(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleConsumer)

	if _, err := nav.Navigate(context.Background(), domain.View("checkout")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNavigator_SelectProduct(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleConsumer)

	if _, err := nav.SelectProduct(context.Background(), productA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := nav.State()
	if s.CurrentView != domain.ViewProductDetails {
		t.Errorf("expected product-details, got %q", s.CurrentView)
	}
	if s.SelectedProduct == nil || s.SelectedProduct.ID != productA.ID {
		t.Errorf("expected selected product %q, got %+v", productA.ID, s.SelectedProduct)
	}
}

func TestNavigator_SelectProduct_FarmerRejected(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleFarmer)

	if _, err := nav.SelectProduct(context.Background(), productA); !errors.Is(err, domain.ErrUnauthorizedTransition) {
		t.Fatalf("expected ErrUnauthorizedTransition, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Session teardown
// ---------------------------------------------------------------------------

func TestNavigator_Logout_ClearsEverything(t *testing.T) {
	cart := &stubResetter{}
	nav, revoker := loggedIn(t, domain.RoleConsumer, cart)
	_, _ = nav.SelectProduct(context.Background(), productA)

	tr, err := nav.Logout(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.To != domain.ViewOnboarding {
		t.Errorf("expected onboarding, got %q", tr.To)
	}
	s := nav.State()
	if s.Session.IsAuthenticated() || s.SelectedProduct != nil || s.ChosenRole != domain.RoleNone {
		t.Errorf("expected empty state, got %+v", s)
	}
	if cart.cleared != 1 {
		t.Errorf("expected cart cleared once, got %d", cart.cleared)
	}
	if revoker.calls != 1 {
		t.Errorf("expected credentials cleared once, got %d", revoker.calls)
	}
}

func TestNavigator_Logout_ProceedsWhenRevokeFails(t *testing.T) {
	nav, revoker := loggedIn(t, domain.RoleConsumer)
	revoker.err = errors.New("store offline")

	if _, err := nav.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.State().Session.IsAuthenticated() {
		t.Errorf("session must be cleared")
	}
}

func TestNavigator_ForceReauthentication(t *testing.T) {
	cart := &stubResetter{}
	nav, revoker := loggedIn(t, domain.RoleFarmer, cart)

	tr := nav.ForceReauthentication(context.Background())

	if tr.To != domain.ViewLogin {
		t.Errorf("expected login, got %q", tr.To)
	}
	s := nav.State()
	if s.Session.IsAuthenticated() {
		t.Errorf("session must be cleared")
	}
	if s.ChosenRole != domain.RoleFarmer {
		t.Errorf("chosen role must survive for the login screen, got %q", s.ChosenRole)
	}
	if cart.cleared != 1 {
		t.Errorf("expected resetters cleared")
	}
	if revoker.calls != 0 {
		t.Errorf("credentials are already cleared by the caller")
	}
}

// ---------------------------------------------------------------------------
// Observers
// ---------------------------------------------------------------------------

func TestNavigator_OnEnterRunsForRegisteredViews(t *testing.T) {
	nav, _ := loggedIn(t, domain.RoleConsumer)
	var entered []domain.View
	nav.OnEnter(domain.CartViews, func(_ context.Context, tr domain.Transition) {
		entered = append(entered, tr.To)
		// Observers run outside the lock and may read state.
		_ = nav.State()
	})
	ctx := context.Background()

	_, _ = nav.Navigate(ctx, domain.ViewCart)
	_, _ = nav.Navigate(ctx, domain.ViewProfile)
	_, _ = nav.SelectProduct(ctx, productA)
	_, _ = nav.Navigate(ctx, domain.ViewAdminDashboard)

	want := []domain.View{domain.ViewCart, domain.ViewProductDetails}
	if !reflect.DeepEqual(entered, want) {
		t.Errorf("expected %v, got %v", want, entered)
	}
}
