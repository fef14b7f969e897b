package domain

// View names one renderable screen.
type View string

const (
	ViewOnboarding      View = "onboarding"
	ViewLogin           View = "login"
	ViewConsumerHome    View = "consumer-home"
	ViewProductDetails  View = "product-details"
	ViewCart            View = "cart"
	ViewOrderTracking   View = "order-tracking"
	ViewSubscriptions   View = "subscriptions"
	ViewBulkOrder       View = "bulk-order"
	ViewProfile         View = "profile"
	ViewFarmerDashboard View = "farmer-dashboard"
	ViewAddProduct      View = "add-product"
	ViewFarmerOrders    View = "farmer-orders"
	ViewFarmerProducts  View = "farmer-products"
	ViewFarmerWallet    View = "farmer-wallet"
	ViewAdminDashboard  View = "admin-dashboard"
)

// AllViews lists every view in declaration order.
var AllViews = []View{
	ViewOnboarding, ViewLogin,
	ViewConsumerHome, ViewProductDetails, ViewCart, ViewOrderTracking, ViewSubscriptions, ViewBulkOrder, ViewProfile,
	ViewFarmerDashboard, ViewAddProduct, ViewFarmerOrders, ViewFarmerProducts, ViewFarmerWallet,
	ViewAdminDashboard,
}

var publicViews = []View{ViewOnboarding, ViewLogin}

// roleViews defines the reachable set of each authenticated role.
var roleViews = map[Role][]View{
	RoleConsumer: {ViewConsumerHome, ViewProductDetails, ViewCart, ViewOrderTracking, ViewSubscriptions, ViewBulkOrder, ViewProfile},
	RoleFarmer:   {ViewFarmerDashboard, ViewAddProduct, ViewFarmerOrders, ViewFarmerProducts, ViewFarmerWallet, ViewProfile},
	RoleAdmin:    {ViewAdminDashboard},
}

var homeViews = map[Role]View{
	RoleConsumer: ViewConsumerHome,
	RoleFarmer:   ViewFarmerDashboard,
	RoleAdmin:    ViewAdminDashboard,
}

// Valid reports whether v is one of the known views.
func (v View) Valid() bool {
	for _, known := range AllViews {
		if known == v {
			return true
		}
	}
	return false
}

// IsPublic reports whether v is reachable without authentication.
func (v View) IsPublic() bool {
	return contains(publicViews, v)
}

// ReachableBy reports whether a session with role may render v.
// RoleNone reaches the public views only; authenticated roles reach their own group only.
func (v View) ReachableBy(role Role) bool {
	if role == RoleNone {
		return v.IsPublic()
	}
	return contains(roleViews[role], v)
}

// ReachableViews returns the views role may render.
func ReachableViews(role Role) []View {
	if role == RoleNone {
		return append([]View(nil), publicViews...)
	}
	return append([]View(nil), roleViews[role]...)
}

// HomeView is where a freshly authenticated session of role lands.
// A consumer home is used for any role without a dedicated dashboard.
func HomeView(role Role) View {
	if v, ok := homeViews[role]; ok {
		return v
	}
	return ViewConsumerHome
}

// CartViews render cart-derived data and trigger a cart reload on entry.
var CartViews = []View{ViewConsumerHome, ViewProductDetails, ViewCart}

// OrderViews render order data and trigger an order reload on entry.
var OrderViews = []View{ViewOrderTracking, ViewFarmerOrders, ViewFarmerDashboard, ViewAdminDashboard}

func contains(views []View, v View) bool {
	for _, candidate := range views {
		if candidate == v {
			return true
		}
	}
	return false
}
