// Package openai is a direct HTTP client for the chat-completions API with
// function calling.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/orderdesk/orderdesk/internal/logging"
)

// Client calls the chat-completions endpoint. The underlying HTTP client has
// no timeout; a hung model call stalls the turn that issued it.
type Client struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
	log    *logging.Logger
}

// NewClient creates a completion-model client.
func NewClient(apiURL, apiKey, model string, log *logging.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{},
		log:    log.Sub("openai"),
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends a completion request and returns the parsed response.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	c.log.Debug().
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Int("functions", len(req.Functions)).
		Msg("calling completion API")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &result, nil
}
