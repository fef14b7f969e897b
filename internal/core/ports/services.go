package ports

import (
	"context"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// CartService is the reconciling cart store as seen by the presentation layer.
type CartService interface {
	AddItem(ctx context.Context, product domain.Product, quantity int) error
	UpdateQuantity(ctx context.Context, lineID string, delta int) error
	Reload(ctx context.Context) error
	Clear()
	Snapshot() domain.CartSnapshot
	// Pending reports how many mutations are still awaiting the remote.
	Pending() int
}

// OrderService reconciles the rendered order list with the remote store.
type OrderService interface {
	Reload(ctx context.Context) error
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	Cancel(ctx context.Context, orderID string) error
	Clear()
	Snapshot() domain.OrderSnapshot
}

// NavigationService is the role-gated view state machine.
type NavigationService interface {
	SelectRole(ctx context.Context, role domain.Role) (domain.Transition, error)
	CompleteLogin(ctx context.Context, session domain.Session) (domain.Transition, error)
	Logout(ctx context.Context) (domain.Transition, error)
	SelectProduct(ctx context.Context, product domain.Product) (domain.Transition, error)
	Navigate(ctx context.Context, to domain.View) (domain.Transition, error)
	Back(ctx context.Context) (domain.Transition, error)
	State() domain.NavigationState
}

// SessionService authenticates and restores sessions.
type SessionService interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, in RegisterInput) (domain.Session, error)
	Restore(ctx context.Context) (domain.Session, error)
	// Discard forgets the credential stored by a Login or Register whose
	// session was not accepted.
	Discard(ctx context.Context) error
}

// Resetter drops locally held state without touching the remote store.
type Resetter interface {
	Clear()
}

// CredentialRevoker forgets the persisted credential.
type CredentialRevoker interface {
	ClearCredentials(ctx context.Context) error
}
