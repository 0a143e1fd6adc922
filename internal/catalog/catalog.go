// Package catalog fetches and caches the tool descriptors published by the
// tool-provider server, and translates them into the completion model's
// function-declaration format.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/orderdesk/orderdesk/internal/logging"
)

// InputSchema is a tool's generic parameter schema. Properties are kept as
// raw maps; malformed schemas pass through untouched and surface later at the
// model or invocation layer.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// Descriptor describes one callable tool: its name, what it does, and the
// HTTP operation it maps to. The endpoint may contain one {id} placeholder.
type Descriptor struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Method      string       `json:"method"`
	Endpoint    string       `json:"endpoint"`
	InputSchema *InputSchema `json:"inputSchema,omitempty"`
}

// listResponse is the tool-provider listing payload.
type listResponse struct {
	Tools []Descriptor `json:"tools"`
}

// Cache fetches the tool catalog once and memoizes it for the process
// lifetime. The catalog is assumed static; there is no invalidation. A failed
// fetch is not cached, so the next call retries.
type Cache struct {
	serverURL string
	client    *http.Client
	log       *logging.Logger

	// Single-assignment: set at most once via CompareAndSwap. Concurrent
	// first calls may race and fetch more than once; only one result wins.
	tools atomic.Pointer[[]Descriptor]
}

// NewCache creates a catalog cache for the given tool-provider base URL.
func NewCache(serverURL string, log *logging.Logger) *Cache {
	return &Cache{
		serverURL: serverURL,
		client:    &http.Client{},
		log:       log.Sub("catalog"),
	}
}

// Tools returns the cached descriptors, fetching them on first use. On fetch
// failure it returns an empty slice without caching, so a later call can
// succeed once the provider is reachable.
func (c *Cache) Tools(ctx context.Context) []Descriptor {
	if cached := c.tools.Load(); cached != nil {
		return *cached
	}

	tools, err := c.fetch(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("url", c.serverURL).Msg("fetching tool catalog failed")
		return nil
	}

	if c.tools.CompareAndSwap(nil, &tools) {
		c.log.Info().Int("tools", len(tools)).Msg("tool catalog cached")
	}
	return *c.tools.Load()
}

// Find returns the descriptor with the given name, if cataloged.
func (c *Cache) Find(ctx context.Context, name string) (Descriptor, bool) {
	for _, t := range c.Tools(ctx) {
		if t.Name == name {
			return t, true
		}
	}
	return Descriptor{}, false
}

func (c *Cache) fetch(ctx context.Context) ([]Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/mcp/tools", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tool server error (%d): %s", resp.StatusCode, string(body))
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parsing tool list: %w", err)
	}
	if list.Tools == nil {
		return nil, fmt.Errorf("tool list missing %q key", "tools")
	}
	return list.Tools, nil
}
