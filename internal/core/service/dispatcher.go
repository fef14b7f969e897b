package service

import (
	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// RenderInput is everything a view may be rendered from.
type RenderInput struct {
	Navigation domain.NavigationState
	Cart       domain.CartSnapshot
	Orders     domain.OrderSnapshot
	// CartSyncing is true while cart mutations await a response.
	CartSyncing bool
}

// ViewDescriptor names the component to render and the props it may read.
type ViewDescriptor struct {
	View        domain.View `json:"view"`
	Component   string      `json:"component"`
	ResetScroll bool        `json:"reset_scroll"`
	Props       any         `json:"props"`
}

type OnboardingProps struct {
	Roles []domain.Role `json:"roles"`
}

type LoginProps struct {
	Role domain.Role `json:"role"`
}

// AccountProps are shared by every authenticated view.
type AccountProps struct {
	User domain.User `json:"user"`
	Role domain.Role `json:"role"`
}

type ConsumerHomeProps struct {
	AccountProps
	CartCount int `json:"cart_count"`
}

type ProductDetailsProps struct {
	AccountProps
	Product   domain.Product `json:"product"`
	InCart    int            `json:"in_cart"`
	CartCount int            `json:"cart_count"`
	// Fallback is true when no product was selected and the default is shown.
	Fallback bool `json:"fallback"`
}

type CartProps struct {
	AccountProps
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
	Syncing   bool              `json:"syncing"`
}

type OrdersProps struct {
	AccountProps
	Orders []domain.Order `json:"orders"`
}

type DashboardProps struct {
	AccountProps
	Orders        []domain.Order `json:"orders"`
	OpenOrders    int            `json:"open_orders"`
	Revenue       float64        `json:"revenue"`
	OrdersVersion uint64         `json:"orders_version"`
}

var components = map[domain.View]string{
	domain.ViewOnboarding:      "Onboarding",
	domain.ViewLogin:           "Login",
	domain.ViewConsumerHome:    "ConsumerHome",
	domain.ViewProductDetails:  "ProductDetails",
	domain.ViewCart:            "Cart",
	domain.ViewOrderTracking:   "OrderTracking",
	domain.ViewSubscriptions:   "Subscriptions",
	domain.ViewBulkOrder:       "BulkOrder",
	domain.ViewProfile:         "Profile",
	domain.ViewFarmerDashboard: "FarmerDashboard",
	domain.ViewAddProduct:      "AddProduct",
	domain.ViewFarmerOrders:    "FarmerOrders",
	domain.ViewFarmerProducts:  "FarmerProducts",
	domain.ViewFarmerWallet:    "FarmerWallet",
	domain.ViewAdminDashboard:  "AdminDashboard",
}

// Dispatcher maps navigation state to a view descriptor. It performs no I/O.
type Dispatcher struct {
	defaultProduct domain.Product
}

// NewDispatcher returns a Dispatcher that shows fallback on product-details
// when no product has been selected.
func NewDispatcher(fallback domain.Product) *Dispatcher {
	return &Dispatcher{defaultProduct: fallback}
}

// Render never returns a descriptor with missing props. A view that is
// unknown or not reachable by the session renders as Onboarding.
func (d *Dispatcher) Render(in RenderInput) ViewDescriptor {
	nav := in.Navigation
	role := nav.Session.Role
	view := nav.CurrentView
	if !view.Valid() || !view.ReachableBy(role) {
		view = domain.ViewOnboarding
	}

	desc := ViewDescriptor{View: view, Component: components[view], ResetScroll: true}

	var account AccountProps
	if nav.Session.User != nil {
		account = AccountProps{User: *nav.Session.User, Role: role}
	}

	switch view {
	case domain.ViewOnboarding:
		desc.Props = OnboardingProps{Roles: []domain.Role{domain.RoleConsumer, domain.RoleFarmer, domain.RoleAdmin}}
	case domain.ViewLogin:
		desc.Props = LoginProps{Role: nav.ChosenRole}
	case domain.ViewConsumerHome:
		desc.Props = ConsumerHomeProps{AccountProps: account, CartCount: in.Cart.ItemCount()}
	case domain.ViewProductDetails:
		product, fallback := d.defaultProduct, true
		if nav.SelectedProduct != nil {
			product, fallback = *nav.SelectedProduct, false
		}
		inCart := 0
		if l, ok := in.Cart.LineByProduct(product.ID); ok {
			inCart = l.Quantity
		}
		desc.Props = ProductDetailsProps{
			AccountProps: account,
			Product:      product,
			InCart:       inCart,
			CartCount:    in.Cart.ItemCount(),
			Fallback:     fallback,
		}
	case domain.ViewCart:
		desc.Props = CartProps{
			AccountProps: account,
			Lines:        nonNilLines(in.Cart.Clone().Lines),
			ItemCount:    in.Cart.ItemCount(),
			Subtotal:     in.Cart.Subtotal(),
			Syncing:      in.CartSyncing,
		}
	case domain.ViewOrderTracking, domain.ViewFarmerOrders:
		desc.Props = OrdersProps{AccountProps: account, Orders: nonNilOrders(in.Orders.Clone().Orders)}
	case domain.ViewFarmerDashboard, domain.ViewAdminDashboard:
		desc.Props = dashboard(account, in.Orders)
	default:
		desc.Props = account
	}
	return desc
}

func dashboard(account AccountProps, orders domain.OrderSnapshot) DashboardProps {
	p := DashboardProps{
		AccountProps:  account,
		Orders:        nonNilOrders(orders.Clone().Orders),
		OrdersVersion: orders.Version,
	}
	for _, o := range orders.Orders {
		if !o.Status.Terminal() {
			p.OpenOrders++
		}
		if o.Status == domain.OrderDelivered {
			p.Revenue += o.Total
		}
	}
	return p
}

func nonNilLines(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return []domain.CartLine{}
	}
	return lines
}

func nonNilOrders(orders []domain.Order) []domain.Order {
	if orders == nil {
		return []domain.Order{}
	}
	return orders
}
