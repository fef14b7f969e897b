package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/pkg/metrics"
)

// EnterObserver runs after a transition into one of the views it was registered for.
type EnterObserver func(ctx context.Context, t domain.Transition)

// Navigator is the role-gated view state machine. It owns the Session; no
// other component reads credentials to decide what may be rendered.
type Navigator struct {
	revoker   ports.CredentialRevoker
	resetters []ports.Resetter
	log       zerolog.Logger

	mu        sync.Mutex
	state     domain.NavigationState
	observers map[domain.View][]EnterObserver
}

// NewNavigator starts on Onboarding with no session. resetters are cleared
// whenever the session ends.
func NewNavigator(revoker ports.CredentialRevoker, log zerolog.Logger, resetters ...ports.Resetter) *Navigator {
	return &Navigator{
		revoker:   revoker,
		resetters: resetters,
		log:       log,
		state:     domain.NavigationState{CurrentView: domain.ViewOnboarding},
		observers: make(map[domain.View][]EnterObserver),
	}
}

// OnEnter registers fn for every view in views.
func (n *Navigator) OnEnter(views []domain.View, fn EnterObserver) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, v := range views {
		n.observers[v] = append(n.observers[v], fn)
	}
}

// State returns a copy of the current navigation state.
func (n *Navigator) State() domain.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return copyState(n.state)
}

// SelectRole records the role picked on onboarding and moves to Login.
func (n *Navigator) SelectRole(ctx context.Context, role domain.Role) (domain.Transition, error) {
	parsed, err := domain.ParseRole(string(role))
	if err != nil {
		return n.reject("select_role", "invalid_role", fmt.Errorf("select role %q: %w", role, err))
	}

	n.mu.Lock()
	if n.state.CurrentView != domain.ViewOnboarding {
		from := n.state.CurrentView
		n.mu.Unlock()
		return n.reject("select_role", "invalid", fmt.Errorf("select role from %s: %w", from, domain.ErrInvalidTransition))
	}
	t := n.moveLocked(domain.ViewLogin, func(s *domain.NavigationState) {
		s.ChosenRole = parsed
	})
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

// Back leaves Login for Onboarding.
func (n *Navigator) Back(ctx context.Context) (domain.Transition, error) {
	n.mu.Lock()
	if n.state.CurrentView != domain.ViewLogin {
		from := n.state.CurrentView
		n.mu.Unlock()
		return n.reject("back", "invalid", fmt.Errorf("back from %s: %w", from, domain.ErrInvalidTransition))
	}
	t := n.moveLocked(domain.ViewOnboarding, nil)
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

// CompleteLogin lands an authenticated session on its role's home view.
// The session comes from a login or registration that already succeeded.
// When the authenticated role differs from the chosen one, the authenticated
// role wins because it is the one the remote enforces.
func (n *Navigator) CompleteLogin(ctx context.Context, session domain.Session) (domain.Transition, error) {
	if !session.IsAuthenticated() {
		return n.reject("complete_login", "unauthenticated", fmt.Errorf("complete login: %w", domain.ErrNotAuthenticated))
	}

	n.mu.Lock()
	if n.state.CurrentView != domain.ViewLogin {
		from := n.state.CurrentView
		n.mu.Unlock()
		return n.reject("complete_login", "invalid", fmt.Errorf("complete login from %s: %w", from, domain.ErrInvalidTransition))
	}
	if n.state.ChosenRole != domain.RoleNone && n.state.ChosenRole != session.Role {
		n.log.Warn().
			Str("chosen_role", string(n.state.ChosenRole)).
			Str("session_role", string(session.Role)).
			Msg("authenticated role differs from chosen role")
	}
	t := n.moveLocked(domain.HomeView(session.Role), func(s *domain.NavigationState) {
		s.Session = session
		s.ChosenRole = session.Role
	})
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

// Resume moves a restored session from Onboarding straight to its home view.
func (n *Navigator) Resume(ctx context.Context, session domain.Session) (domain.Transition, error) {
	if !session.IsAuthenticated() {
		return n.reject("resume", "unauthenticated", fmt.Errorf("resume: %w", domain.ErrNotAuthenticated))
	}

	n.mu.Lock()
	if n.state.CurrentView != domain.ViewOnboarding {
		from := n.state.CurrentView
		n.mu.Unlock()
		return n.reject("resume", "invalid", fmt.Errorf("resume from %s: %w", from, domain.ErrInvalidTransition))
	}
	t := n.moveLocked(domain.HomeView(session.Role), func(s *domain.NavigationState) {
		s.Session = session
		s.ChosenRole = session.Role
	})
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

// Logout ends the session from any view and returns to Onboarding.
// Local state is dropped even when the credential cannot be removed.
func (n *Navigator) Logout(ctx context.Context) (domain.Transition, error) {
	if n.revoker != nil {
		if err := n.revoker.ClearCredentials(ctx); err != nil {
			n.log.Error().Err(err).Msg("failed to clear stored credentials")
		}
	}
	n.reset()

	n.mu.Lock()
	t := n.moveLocked(domain.ViewOnboarding, func(s *domain.NavigationState) {
		*s = domain.NavigationState{}
	})
	n.mu.Unlock()

	n.log.Info().Str("from", string(t.From)).Msg("logged out")
	return n.entered(ctx, t), nil
}

// ForceReauthentication drops the session after the remote rejected the
// credential. The user lands on Login when a role is known, else on Onboarding.
func (n *Navigator) ForceReauthentication(ctx context.Context) domain.Transition {
	n.reset()

	n.mu.Lock()
	role := n.state.ChosenRole
	to := domain.ViewOnboarding
	if role != domain.RoleNone {
		to = domain.ViewLogin
	}
	t := n.moveLocked(to, func(s *domain.NavigationState) {
		*s = domain.NavigationState{ChosenRole: role}
	})
	n.mu.Unlock()

	n.log.Warn().Str("from", string(t.From)).Str("to", string(t.To)).Msg("session rejected by remote, reauthentication required")
	return n.entered(ctx, t)
}

// SelectProduct opens product-details for product. Only consumer views may do this.
func (n *Navigator) SelectProduct(ctx context.Context, product domain.Product) (domain.Transition, error) {
	if product.ID == "" {
		return n.reject("select_product", "invalid", fmt.Errorf("select product: %w", domain.ErrInvalidProduct))
	}

	n.mu.Lock()
	role := n.state.Session.Role
	if role != domain.RoleConsumer || !n.state.CurrentView.ReachableBy(role) {
		from := n.state.CurrentView
		n.mu.Unlock()
		return n.reject("select_product", "unauthorized",
			fmt.Errorf("select product from %s as %q: %w", from, role, domain.ErrUnauthorizedTransition))
	}
	t := n.moveLocked(domain.ViewProductDetails, func(s *domain.NavigationState) {
		p := product
		s.SelectedProduct = &p
	})
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

// Navigate is a direct move to another view of the current role's group.
// Views outside the reachable set are rejected and the state is left as is.
func (n *Navigator) Navigate(ctx context.Context, to domain.View) (domain.Transition, error) {
	if !to.Valid() {
		return n.reject("navigate", "invalid", fmt.Errorf("navigate to %q: %w", to, domain.ErrInvalidTransition))
	}

	n.mu.Lock()
	role := n.state.Session.Role
	from := n.state.CurrentView
	if !to.ReachableBy(role) {
		n.mu.Unlock()
		return n.reject("navigate", "unauthorized",
			fmt.Errorf("navigate %s -> %s as %q: %w", from, to, role, domain.ErrUnauthorizedTransition))
	}
	if to == domain.ViewLogin && n.state.ChosenRole == domain.RoleNone {
		n.mu.Unlock()
		return n.reject("navigate", "invalid", fmt.Errorf("navigate to login without a role: %w", domain.ErrInvalidTransition))
	}
	t := n.moveLocked(to, nil)
	n.mu.Unlock()

	return n.entered(ctx, t), nil
}

func (n *Navigator) moveLocked(to domain.View, mutate func(*domain.NavigationState)) domain.Transition {
	t := domain.Transition{From: n.state.CurrentView, To: to, ResetScroll: true}
	if mutate != nil {
		mutate(&n.state)
	}
	n.state.CurrentView = to
	return t
}

// entered records t and runs the observers of its target view outside the lock.
func (n *Navigator) entered(ctx context.Context, t domain.Transition) domain.Transition {
	metrics.TransitionsTotal.WithLabelValues(string(t.To)).Inc()
	n.log.Debug().Str("from", string(t.From)).Str("to", string(t.To)).Msg("view transition")

	n.mu.Lock()
	observers := append([]EnterObserver(nil), n.observers[t.To]...)
	n.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, t)
	}
	return t
}

func (n *Navigator) reject(op, reason string, err error) (domain.Transition, error) {
	metrics.TransitionRejectionsTotal.WithLabelValues(reason).Inc()
	n.log.Warn().Err(err).Str("op", op).Msg("transition rejected")
	return domain.Transition{}, err
}

func (n *Navigator) reset() {
	for _, r := range n.resetters {
		r.Clear()
	}
}

func copyState(s domain.NavigationState) domain.NavigationState {
	out := s
	if s.SelectedProduct != nil {
		p := *s.SelectedProduct
		out.SelectedProduct = &p
	}
	if s.Session.User != nil {
		u := *s.Session.User
		out.Session.User = &u
	}
	return out
}
