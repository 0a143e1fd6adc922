package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/agent"
	"github.com/orderdesk/orderdesk/internal/catalog"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/history"
	"github.com/orderdesk/orderdesk/internal/invoker"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/openai"
)

// scriptedModel replays canned completion responses in order. A nil script
// entry produces a 500 from the fake API.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*openai.Response
}

func (m *scriptedModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var resp *openai.Response
	if len(m.responses) > 0 {
		resp = m.responses[0]
		m.responses = m.responses[1:]
	}
	if resp == nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
		return
	}
	json.NewEncoder(w).Encode(resp)
}

func textChoice(content string) *openai.Response {
	return &openai.Response{
		Choices: []openai.Choice{{
			Message:      openai.Message{Role: openai.RoleAssistant, Content: content},
			FinishReason: openai.FinishStop,
		}},
	}
}

// newTestServer builds a Server over a scripted model and an empty tool
// catalog, serving the route mux directly.
func newTestServer(t *testing.T, model *scriptedModel) (*Server, *httptest.Server) {
	t.Helper()

	modelTS := httptest.NewServer(model)
	t.Cleanup(modelTS.Close)

	toolTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tools": []}`))
	}))
	t.Cleanup(toolTS.Close)

	log := logging.New(nil, "silent")
	client := openai.NewClient(modelTS.URL, "test-key", "gpt-4", log)
	cat := catalog.NewCache(toolTS.URL, log)
	inv := invoker.New(toolTS.URL, cat, log)
	engine := agent.NewEngine(client, cat, inv, history.NewStore(log), log)

	srv := New(config.Config{}, engine, log)

	mux := http.NewServeMux()
	srv.registerHTTPRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return srv, ts
}

func postChat(t *testing.T, baseURL, body string) (*http.Response, agent.TurnResult) {
	t.Helper()
	resp, err := http.Post(baseURL+"/api/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var result agent.TurnResult
	json.NewDecoder(resp.Body).Decode(&result)
	return resp, result
}

func TestHandleChat_MintsSessionID(t *testing.T) {
	model := &scriptedModel{responses: []*openai.Response{textChoice("Hello!")}}
	_, ts := newTestServer(t, model)

	resp, result := postChat(t, ts.URL, `{"message": "hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hello!", result.Response)
	assert.NotEmpty(t, result.SessionID)
	assert.NotNil(t, result.FunctionsCalled)
}

func TestHandleChat_KeepsClientSessionID(t *testing.T) {
	model := &scriptedModel{responses: []*openai.Response{textChoice("Again!")}}
	_, ts := newTestServer(t, model)

	resp, result := postChat(t, ts.URL, `{"message": "hi", "sessionId": "abc-123"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", result.SessionID)
}

func TestHandleChat_EmptyMessage(t *testing.T) {
	_, ts := newTestServer(t, &scriptedModel{})

	resp, _ := postChat(t, ts.URL, `{"message": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	_, ts := newTestServer(t, &scriptedModel{})

	resp, _ := postChat(t, ts.URL, `{"message": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleChat_EngineFailure(t *testing.T) {
	// No scripted responses: the fake model answers 500.
	model := &scriptedModel{}
	_, ts := newTestServer(t, model)

	resp, result := postChat(t, ts.URL, `{"message": "hi", "sessionId": "s1"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Sorry, something went wrong. Please try again later.", result.Response)
	assert.Equal(t, "s1", result.SessionID)
}

func TestHandleChatHealth(t *testing.T) {
	_, ts := newTestServer(t, &scriptedModel{})

	resp, err := http.Get(ts.URL + "/api/chat/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Chat API is running", string(body[:n]))
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t, &scriptedModel{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestSessionEndpoints(t *testing.T) {
	model := &scriptedModel{responses: []*openai.Response{textChoice("ok")}}
	_, ts := newTestServer(t, model)

	// Unknown session is a 404.
	resp, err := http.Get(ts.URL + "/api/sessions/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A chat turn creates the session.
	postChat(t, ts.URL, `{"message": "hi", "sessionId": "s1"}`)

	resp, err = http.Get(ts.URL + "/api/sessions/s1")
	require.NoError(t, err)
	var info struct {
		SessionID string `json:"sessionId"`
		Messages  int    `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, "s1", info.SessionID)
	assert.Equal(t, 3, info.Messages) // system + user + assistant

	resp, err = http.Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	var count struct {
		Sessions int `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	resp.Body.Close()
	assert.Equal(t, 1, count.Sessions)

	// Clearing the session removes it.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/s1", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/sessions/s1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotFoundRoute(t *testing.T) {
	_, ts := newTestServer(t, &scriptedModel{})

	resp, err := http.Get(ts.URL + "/api/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/api/unknown", body["path"])
}

func TestResolveBindAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", resolveBindAddr(config.ServerConfig{Bind: "loopback", Port: 8080}))
	assert.Equal(t, "0.0.0.0:8080", resolveBindAddr(config.ServerConfig{Bind: "lan", Port: 8080}))
	assert.Equal(t, "10.0.0.5:9000", resolveBindAddr(config.ServerConfig{Bind: "custom", CustomBindHost: "10.0.0.5", Port: 9000}))
	assert.Equal(t, "0.0.0.0:9000", resolveBindAddr(config.ServerConfig{Bind: "custom", Port: 9000}))
	assert.Equal(t, "127.0.0.1:8080", resolveBindAddr(config.ServerConfig{Port: 8080}))
}
