package domain

import "time"

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending        OrderStatus = "Pending"
	OrderConfirmed      OrderStatus = "Confirmed"
	OrderOutForDelivery OrderStatus = "Out for Delivery"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
)

// validOrderTransitions defines the allowed order state machine transitions.
// Delivered and Cancelled are terminal.
var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderOutForDelivery, OrderCancelled},
	OrderOutForDelivery: {OrderDelivered, OrderCancelled},
}

// ParseOrderStatus accepts the wire spelling of a status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderConfirmed, OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validOrderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(validOrderTransitions[s]) == 0
}

// OrderItem is one purchased line of an order.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	FarmerName  string  `json:"farmer_name,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Order is the rendered view of a remote order.
type Order struct {
	ID           string      `json:"id"`
	OrderNumber  string      `json:"order_number"`
	ConsumerName string      `json:"consumer_name,omitempty"`
	DeliveryType string      `json:"delivery_type,omitempty"`
	Status       OrderStatus `json:"status"`
	Items        []OrderItem `json:"items"`
	Total        float64     `json:"total"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderSnapshot is the last known server truth for the order list.
type OrderSnapshot struct {
	Orders     []Order   `json:"orders"`
	Version    uint64    `json:"version"`
	CapturedAt time.Time `json:"captured_at"`
}

// Clone returns a deep copy of the snapshot.
func (s OrderSnapshot) Clone() OrderSnapshot {
	out := s
	out.Orders = make([]Order, len(s.Orders))
	for i, o := range s.Orders {
		o.Items = append([]OrderItem(nil), o.Items...)
		out.Orders[i] = o
	}
	return out
}

// OrderByID returns the order with the given id.
func (s OrderSnapshot) OrderByID(id string) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return Order{}, false
}
