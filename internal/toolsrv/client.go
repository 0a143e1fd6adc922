package toolsrv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/orders"
)

// BackendClient calls the order backend's REST API.
type BackendClient struct {
	baseURL string // e.g. http://localhost:8082/api/orders
	client  *http.Client
	log     *logging.Logger
}

// NewBackendClient creates a client for the order backend.
func NewBackendClient(baseURL string, log *logging.Logger) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
		log:     log.Sub("toolsrv.backend"),
	}
}

// Create posts a new order.
func (c *BackendClient) Create(ctx context.Context, o orders.Order) (orders.Order, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return orders.Order{}, fmt.Errorf("marshaling order: %w", err)
	}
	var created orders.Order
	if err := c.do(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload), &created); err != nil {
		return orders.Order{}, fmt.Errorf("creating order: %w", err)
	}
	return created, nil
}

// List fetches all orders.
func (c *BackendClient) List(ctx context.Context) ([]orders.Order, error) {
	var out []orders.Order
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}
	return out, nil
}

// Get fetches one order by ID.
func (c *BackendClient) Get(ctx context.Context, id int64) (orders.Order, error) {
	var out orders.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", c.baseURL, id), nil, &out); err != nil {
		return orders.Order{}, fmt.Errorf("fetching order %d: %w", id, err)
	}
	return out, nil
}

// Update replaces an order.
func (c *BackendClient) Update(ctx context.Context, id int64, o orders.Order) (orders.Order, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return orders.Order{}, fmt.Errorf("marshaling order: %w", err)
	}
	var updated orders.Order
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", c.baseURL, id), bytes.NewReader(payload), &updated); err != nil {
		return orders.Order{}, fmt.Errorf("updating order %d: %w", id, err)
	}
	return updated, nil
}

// Cancel deletes an order.
func (c *BackendClient) Cancel(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", c.baseURL, id), nil, nil); err != nil {
		return fmt.Errorf("cancelling order %d: %w", id, err)
	}
	return nil
}

// UpdateAddress patches an order's delivery address.
func (c *BackendClient) UpdateAddress(ctx context.Context, id int64, address string) (orders.Order, error) {
	target := fmt.Sprintf("%s/%d/address?address=%s", c.baseURL, id, url.QueryEscape(address))
	var out orders.Order
	if err := c.do(ctx, http.MethodPatch, target, nil, &out); err != nil {
		return orders.Order{}, fmt.Errorf("updating address for order %d: %w", id, err)
	}
	return out, nil
}

func (c *BackendClient) do(ctx context.Context, method, target string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend error (%d): %s", resp.StatusCode, string(data))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
