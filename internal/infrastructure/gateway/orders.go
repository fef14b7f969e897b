package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

var _ ports.OrderGateway = (*Client)(nil)

const (
	ordersPerPage = 50
	maxOrderPages = 20
)

// amount accepts decimals encoded either as JSON numbers or strings.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*a = amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*a = amount(f)
	return nil
}

// timestamp accepts RFC 3339 and the zone-less ISO form the remote emits.
type timestamp time.Time

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", s)
}

type orderItemDTO struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	FarmerName      string `json:"farmer_name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase amount `json:"price_at_purchase"`
	Price           amount `json:"price"`
}

type orderDTO struct {
	ID           string         `json:"id"`
	OrderNumber  string         `json:"order_number"`
	ConsumerName string         `json:"consumer_name"`
	DeliveryType string         `json:"delivery_type"`
	Status       string         `json:"status"`
	Items        []orderItemDTO `json:"items"`
	Total        amount         `json:"total"`
	CreatedAt    timestamp      `json:"created_at"`
	UpdatedAt    timestamp      `json:"updated_at"`
}

type orderPage struct {
	Items      []orderDTO `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}

func (o orderDTO) toDomain() domain.Order {
	status, ok := domain.ParseOrderStatus(o.Status)
	if !ok {
		status = domain.OrderStatus(o.Status)
	}
	items := make([]domain.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		price := it.PriceAtPurchase
		if price == 0 {
			price = it.Price
		}
		items = append(items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			FarmerName:  it.FarmerName,
			Quantity:    it.Quantity,
			Price:       float64(price),
		})
	}
	return domain.Order{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		ConsumerName: o.ConsumerName,
		DeliveryType: o.DeliveryType,
		Status:       status,
		Items:        items,
		Total:        float64(o.Total),
		CreatedAt:    time.Time(o.CreatedAt),
		UpdatedAt:    time.Time(o.UpdatedAt),
	}
}

// FetchOrders calls GET /orders and follows pagination.
func (c *Client) FetchOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	for page := 1; page <= maxOrderPages; page++ {
		var out orderPage
		path := fmt.Sprintf("/orders?page=%d&perPage=%d", page, ordersPerPage)
		if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		for _, o := range out.Items {
			orders = append(orders, o.toDomain())
		}
		if page >= out.TotalPages || len(out.Items) == 0 {
			break
		}
	}
	return orders, nil
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// SetOrderStatus calls PATCH /orders/{id}/status.
func (c *Client) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var raw json.RawMessage
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, statusRequest{Status: status}, &raw); err != nil {
		return nil, err
	}
	return orderFrom(raw)
}

// CancelOrder calls POST /orders/{id}/cancel.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, &raw); err != nil {
		return nil, err
	}
	return orderFrom(raw)
}

// orderFrom decodes data as an order when it carries one with a status.
func orderFrom(raw json.RawMessage) (*domain.Order, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var dto orderDTO
	if err := json.Unmarshal(raw, &dto); err != nil || dto.ID == "" || dto.Status == "" {
		return nil, nil
	}
	o := dto.toDomain()
	return &o, nil
}
