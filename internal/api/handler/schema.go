package handler

import (
	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/service"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Navigation ---

type selectRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=consumer farmer admin"`
}

type navigateRequest struct {
	View string `json:"view" validate:"required"`
}

type productRequest struct {
	ID          string  `json:"id"          validate:"required"`
	Name        string  `json:"name"        validate:"required"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Unit        string  `json:"unit"`
	ImageURL    string  `json:"image_url"`
	Farmer      string  `json:"farmer"`
	Rating      float64 `json:"rating"      validate:"gte=0,lte=5"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
}

func (p productRequest) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Unit:        p.Unit,
		ImageURL:    p.ImageURL,
		Farmer:      p.Farmer,
		Rating:      p.Rating,
		Category:    p.Category,
		Description: p.Description,
		Location:    p.Location,
	}
}

type transitionResponse struct {
	From        domain.View `json:"from"`
	To          domain.View `json:"to"`
	ResetScroll bool        `json:"reset_scroll"`
}

type navigationResponse struct {
	Transition transitionResponse     `json:"transition"`
	View       service.ViewDescriptor `json:"view"`
}

// --- Session ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=6"`
	FullName        string `json:"full_name"        validate:"required"`
	Role            string `json:"role"             validate:"required,oneof=consumer farmer admin"`
	Phone           string `json:"phone"`
	FarmName        string `json:"farm_name"`
	FarmLocation    string `json:"farm_location"`
	FarmDescription string `json:"farm_description"`
}

// --- Cart ---

type addItemRequest struct {
	Product  productRequest `json:"product"  validate:"required"`
	Quantity int            `json:"quantity" validate:"required,gt=0"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type cartResponse struct {
	Lines     []domain.CartLine `json:"lines"`
	Version   uint64            `json:"version"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
	Syncing   bool              `json:"syncing"`
}

// --- Orders ---

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ordersResponse struct {
	Orders    []domain.Order `json:"orders"`
	Version   uint64         `json:"version"`
	CanManage bool           `json:"can_manage"`
}

type noticesResponse struct {
	Notices []domain.Notice `json:"notices"`
}
