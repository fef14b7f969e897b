package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agriconnect/marketplace-client/internal/core/ports"
)

var _ ports.CartGateway = (*Client)(nil)

type addLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// FetchCart calls GET /cart.
func (c *Client) FetchCart(ctx context.Context) (*ports.CartPayload, error) {
	var out ports.CartPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddLine calls POST /cart/items.
func (c *Client) AddLine(ctx context.Context, productID string, quantity int) (*ports.CartPayload, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/cart/items", addLineRequest{ProductID: productID, Quantity: quantity}, &raw); err != nil {
		return nil, err
	}
	return cartFrom(raw)
}

// SetLineQuantity calls PUT /cart/items/{id} with the absolute quantity.
func (c *Client) SetLineQuantity(ctx context.Context, lineID string, quantity int) (*ports.CartPayload, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(lineID), setQuantityRequest{Quantity: quantity}, &raw); err != nil {
		return nil, err
	}
	return cartFrom(raw)
}

// RemoveLine calls DELETE /cart/items/{id}.
func (c *Client) RemoveLine(ctx context.Context, lineID string) (*ports.CartPayload, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(lineID), nil, &raw); err != nil {
		return nil, err
	}
	return cartFrom(raw)
}

// cartFrom decodes data as a cart when it carries one. Mutation endpoints may
// answer with only the affected line, which yields nil.
func cartFrom(raw json.RawMessage) (*ports.CartPayload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var probe struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe.Items) == 0 {
		return nil, nil
	}
	var out ports.CartPayload
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &out, nil
}
