// Package invoker dispatches tool calls generically against the tool-provider
// HTTP API, driven only by descriptor metadata (method, path template,
// arguments). It never returns a Go error: every failure becomes a structured
// error payload the model can read.
package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/orderdesk/orderdesk/internal/catalog"
	"github.com/orderdesk/orderdesk/internal/logging"
)

// pathPlaceholder is the one recognized template placeholder. It is bound to
// the pathArgument by convention; this is not a general templating engine.
const (
	pathPlaceholder = "{id}"
	pathArgument    = "orderId"
)

// Invoker executes cataloged tools over HTTP. Calls block until the backend
// responds; there is no timeout, retry, or circuit breaker.
type Invoker struct {
	serverURL string
	catalog   *catalog.Cache
	client    *http.Client
	log       *logging.Logger
}

// New creates an invoker that resolves tools from the given catalog and
// dispatches against serverURL.
func New(serverURL string, cat *catalog.Cache, log *logging.Logger) *Invoker {
	return &Invoker{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		catalog:   cat,
		client:    &http.Client{},
		log:       log.Sub("invoker"),
	}
}

// Invoke runs the named tool with the given arguments and returns the
// response body as text. Unknown tools and transport failures yield an
// {"error": ...} payload rather than an error.
func (v *Invoker) Invoke(ctx context.Context, name string, args map[string]any) string {
	tool, ok := v.catalog.Find(ctx, name)
	if !ok {
		v.log.Warn().Str("function", name).Msg("unknown function")
		return errorPayload("Unknown function: " + name)
	}

	path := substitutePlaceholder(tool.Endpoint, args)
	query := queryParams(args)

	v.log.Info().
		Str("function", name).
		Str("method", tool.Method).
		Str("path", path).
		Msg("invoking tool")

	body, err := v.dispatch(ctx, tool.Method, path, query)
	if err != nil {
		v.log.Error().Err(err).Str("function", name).Msg("tool invocation failed")
		return errorPayload(err.Error())
	}
	return body
}

// substitutePlaceholder resolves the {id} placeholder from the orderId
// argument, stringified. Endpoints without the placeholder pass through.
func substitutePlaceholder(endpoint string, args map[string]any) string {
	if !strings.Contains(endpoint, pathPlaceholder) {
		return endpoint
	}
	id, ok := args[pathArgument]
	if !ok {
		return endpoint
	}
	return strings.ReplaceAll(endpoint, pathPlaceholder, stringify(id))
}

// queryParams collects every argument not consumed by the path placeholder.
func queryParams(args map[string]any) url.Values {
	q := url.Values{}
	for k, val := range args {
		if k == pathArgument {
			continue
		}
		q.Set(k, stringify(val))
	}
	return q
}

// dispatch issues the HTTP request. GET and PATCH carry query parameters;
// POST, PUT and DELETE do not.
func (v *Invoker) dispatch(ctx context.Context, method, path string, query url.Values) (string, error) {
	target := v.serverURL + path

	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodPatch:
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		// No query parameters for these methods.
	default:
		return "", fmt.Errorf("unsupported HTTP method: %s", method)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

// stringify renders an argument for a path segment or query value. JSON
// numbers decode as float64; whole values must not pick up a ".0" suffix.
func stringify(v any) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}

func errorPayload(msg string) string {
	payload, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error": "internal error"}`
	}
	return string(payload)
}
