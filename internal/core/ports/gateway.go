package ports

import (
	"context"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// CartLinePayload is one cart line as the remote store reports it.
type CartLinePayload struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	ImageURL    string  `json:"image_url"`
	Farmer      string  `json:"farmer"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// CartPayload is the authoritative cart returned by every cart endpoint.
type CartPayload struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Items     []CartLinePayload `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"item_count"`
}

// CartGateway is the remote cart resource.
// Mutating calls return the authoritative cart when the server includes it, nil otherwise.
type CartGateway interface {
	FetchCart(ctx context.Context) (*CartPayload, error)
	AddLine(ctx context.Context, productID string, quantity int) (*CartPayload, error)
	SetLineQuantity(ctx context.Context, lineID string, quantity int) (*CartPayload, error)
	RemoveLine(ctx context.Context, lineID string) (*CartPayload, error)
}

// OrderGateway is the remote order resource.
// Status changes return the updated order when the server includes it, nil otherwise.
type OrderGateway interface {
	FetchOrders(ctx context.Context) ([]domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// RegisterInput carries the fields accepted by the register endpoint.
type RegisterInput struct {
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	FullName        string      `json:"full_name"`
	Role            domain.Role `json:"role"`
	Phone           string      `json:"phone,omitempty"`
	FarmName        string      `json:"farm_name,omitempty"`
	FarmLocation    string      `json:"farm_location,omitempty"`
	FarmDescription string      `json:"farm_description,omitempty"`
}

// AuthGateway authenticates against the remote API and owns the persisted credential.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, in RegisterInput) (domain.Session, error)
	FetchCurrentUser(ctx context.Context) (*domain.User, error)
	// StoredSession inspects the persisted credential without network I/O.
	StoredSession(ctx context.Context) (domain.Session, error)
	ClearCredentials(ctx context.Context) error
}
