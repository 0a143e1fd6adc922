// Package toolsrv implements the tool-provider server: it publishes the
// catalog of callable tools and proxies their REST endpoints to the order
// backend.
package toolsrv

import "github.com/orderdesk/orderdesk/internal/catalog"

// DefaultCatalog describes the order tools the completion model may call.
// Endpoints are relative to this server; {id} is resolved from the orderId
// argument by the invoker.
func DefaultCatalog() []catalog.Descriptor {
	return []catalog.Descriptor{
		{
			Name:        "get_all_orders",
			Description: "Lists all orders",
			Method:      "GET",
			Endpoint:    "/mcp/orders",
			InputSchema: &catalog.InputSchema{
				Type:       "object",
				Properties: map[string]any{},
				Required:   []string{},
			},
		},
		{
			Name:        "get_order_by_id",
			Description: "Fetches an order by its ID",
			Method:      "GET",
			Endpoint:    "/mcp/orders/{id}",
			InputSchema: &catalog.InputSchema{
				Type: "object",
				Properties: map[string]any{
					"orderId": map[string]any{
						"type":        "number",
						"description": "ID of the order to fetch",
					},
				},
				Required: []string{"orderId"},
			},
		},
		{
			Name:        "cancel_order",
			Description: "Cancels an order",
			Method:      "DELETE",
			Endpoint:    "/mcp/orders/{id}",
			InputSchema: &catalog.InputSchema{
				Type: "object",
				Properties: map[string]any{
					"orderId": map[string]any{
						"type":        "number",
						"description": "ID of the order to cancel",
					},
				},
				Required: []string{"orderId"},
			},
		},
		{
			Name:        "update_order_address",
			Description: "Updates an order's delivery address. Customers can switch between saved address labels such as 'home' or 'work'.",
			Method:      "PATCH",
			Endpoint:    "/mcp/orders/{id}/address",
			InputSchema: &catalog.InputSchema{
				Type: "object",
				Properties: map[string]any{
					"orderId": map[string]any{
						"type":        "number",
						"description": "ID of the order whose address changes",
					},
					"address": map[string]any{
						"type":        "string",
						"description": "New address label (e.g. 'home', 'work', 'office')",
					},
				},
				Required: []string{"orderId", "address"},
			},
		},
	}
}
