package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/catalog"
	"github.com/orderdesk/orderdesk/internal/history"
	"github.com/orderdesk/orderdesk/internal/invoker"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/openai"
)

const engineTestTools = `{
	"tools": [
		{"name": "get_all_orders", "description": "Lists all orders", "method": "GET", "endpoint": "/mcp/orders"},
		{"name": "cancel_order", "description": "Cancels an order", "method": "DELETE", "endpoint": "/mcp/orders/{id}",
			"inputSchema": {"type": "object", "properties": {"orderId": {"type": "number"}}, "required": ["orderId"]}}
	]
}`

// fakeModel scripts chat-completion responses in order and records every
// request it receives.
type fakeModel struct {
	mu        sync.Mutex
	responses []openai.Response
	requests  []openai.Request
	status    int
}

func (f *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var req openai.Request
	json.NewDecoder(r.Body).Decode(&req)
	f.requests = append(f.requests, req)

	if f.status != 0 {
		w.WriteHeader(f.status)
		w.Write([]byte(`{"error": {"message": "boom"}}`))
		return
	}

	resp := openai.Response{}
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeModel) recorded() []openai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]openai.Request(nil), f.requests...)
}

func textResponse(content string) openai.Response {
	return openai.Response{
		Choices: []openai.Choice{{
			Message:      openai.Message{Role: openai.RoleAssistant, Content: content},
			FinishReason: openai.FinishStop,
		}},
	}
}

func functionCallResponse(name, args string) openai.Response {
	return openai.Response{
		Choices: []openai.Choice{{
			Message: openai.Message{
				Role:         openai.RoleAssistant,
				FunctionCall: &openai.FunctionCall{Name: name, Arguments: args},
			},
			FinishReason: openai.FinishFunctionCall,
		}},
	}
}

// newTestEngine wires an engine against a fake model and a fake tool
// provider. toolHandler serves everything under the provider except the
// catalog listing.
func newTestEngine(t *testing.T, model *fakeModel, toolHandler http.HandlerFunc) (*Engine, *history.Store) {
	t.Helper()

	modelTS := httptest.NewServer(model)
	t.Cleanup(modelTS.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(engineTestTools))
	})
	if toolHandler != nil {
		mux.HandleFunc("/", toolHandler)
	}
	toolTS := httptest.NewServer(mux)
	t.Cleanup(toolTS.Close)

	log := logging.New(nil, "silent")
	client := openai.NewClient(modelTS.URL, "test-key", "gpt-4", log)
	cat := catalog.NewCache(toolTS.URL, log)
	inv := invoker.New(toolTS.URL, cat, log)
	sessions := history.NewStore(log)
	return NewEngine(client, cat, inv, sessions, log), sessions
}

func TestChat_PlainAnswer(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{textResponse("Hello! How can I help with your order?")}}
	engine, sessions := newTestEngine(t, model, nil)

	result, err := engine.Chat(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help with your order?", result.Response)
	assert.Equal(t, "s1", result.SessionID)
	assert.Empty(t, result.FunctionsCalled)

	msgs := sessions.History("s1")
	require.Len(t, msgs, 3)
	assert.Equal(t, openai.RoleSystem, msgs[0].Role)
	assert.Equal(t, openai.RoleUser, msgs[1].Role)
	assert.Equal(t, openai.RoleAssistant, msgs[2].Role)

	// The one and only request declared the cataloged functions.
	reqs := model.recorded()
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].Functions, 2)
	assert.Equal(t, "auto", reqs[0].FunctionCall)
}

func TestChat_SingleToolHop(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		functionCallResponse("get_all_orders", `{}`),
		textResponse("You have two orders: #1 and #2."),
	}}

	var toolCalls []string
	engine, sessions := newTestEngine(t, model, func(w http.ResponseWriter, r *http.Request) {
		toolCalls = append(toolCalls, r.Method+" "+r.URL.Path)
		w.Write([]byte(`[{"id": 1}, {"id": 2}]`))
	})

	result, err := engine.Chat(context.Background(), "s1", "show my orders")
	require.NoError(t, err)
	assert.Equal(t, "You have two orders: #1 and #2.", result.Response)

	require.Len(t, result.FunctionsCalled, 1)
	assert.Equal(t, "get_all_orders", result.FunctionsCalled[0].FunctionName)
	assert.Equal(t, []string{"GET /mcp/orders"}, toolCalls)

	// History carries the full exchange in order: system, user, the
	// assistant's function call, the function result, the final answer.
	msgs := sessions.History("s1")
	require.Len(t, msgs, 5)
	assert.Equal(t, openai.RoleSystem, msgs[0].Role)
	assert.Equal(t, openai.RoleUser, msgs[1].Role)
	assert.Equal(t, openai.RoleAssistant, msgs[2].Role)
	require.NotNil(t, msgs[2].FunctionCall)
	assert.Equal(t, openai.RoleFunction, msgs[3].Role)
	assert.Equal(t, "get_all_orders", msgs[3].Name)
	assert.Equal(t, `[{"id": 1}, {"id": 2}]`, msgs[3].Content)
	assert.Equal(t, openai.RoleAssistant, msgs[4].Role)

	// The follow-up request must not declare functions: one hop per turn.
	reqs := model.recorded()
	require.Len(t, reqs, 2)
	assert.NotEmpty(t, reqs[0].Functions)
	assert.Empty(t, reqs[1].Functions)
	assert.Empty(t, reqs[1].FunctionCall)
}

func TestChat_CancelOrderHitsDeleteEndpoint(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		functionCallResponse("cancel_order", `{"orderId": 5}`),
		textResponse("Order 5 is cancelled."),
	}}

	var got *http.Request
	engine, _ := newTestEngine(t, model, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`{"message": "Order 5 was cancelled successfully."}`))
	})

	result, err := engine.Chat(context.Background(), "s1", "cancel order 5")
	require.NoError(t, err)
	assert.Equal(t, "Order 5 is cancelled.", result.Response)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/mcp/orders/5", got.URL.Path)

	require.Len(t, result.FunctionsCalled, 1)
	record := result.FunctionsCalled[0]
	assert.Equal(t, "cancel_order", record.FunctionName)
	assert.Equal(t, map[string]any{"orderId": float64(5)}, record.Request)
	assert.Equal(t, map[string]any{"message": "Order 5 was cancelled successfully."}, record.Response)
}

func TestChat_ModelFailureReturnsApology(t *testing.T) {
	model := &fakeModel{status: http.StatusInternalServerError}
	engine, sessions := newTestEngine(t, model, nil)

	result, err := engine.Chat(context.Background(), "s1", "hi")
	require.Error(t, err)
	assert.Equal(t, apologyResponse, result.Response)
	assert.Equal(t, "s1", result.SessionID)
	assert.Empty(t, result.FunctionsCalled)

	// The user message stays in the history; partial writes are not rolled
	// back.
	msgs := sessions.History("s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, openai.RoleSystem, msgs[0].Role)
	assert.Equal(t, openai.RoleUser, msgs[1].Role)
}

func TestChat_EmptyChoices(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{{}}}
	engine, _ := newTestEngine(t, model, nil)

	result, err := engine.Chat(context.Background(), "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, emptyResponse, result.Response)
}

func TestChat_MalformedFunctionArguments(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		functionCallResponse("cancel_order", `{"orderId": `),
	}}
	engine, sessions := newTestEngine(t, model, func(w http.ResponseWriter, r *http.Request) {
		t.Error("tool must not be invoked with undecodable arguments")
	})

	result, err := engine.Chat(context.Background(), "s1", "cancel it")
	require.Error(t, err)
	assert.Equal(t, apologyResponse, result.Response)

	// The turn aborted before the function-call messages were appended.
	assert.Equal(t, 2, sessions.MessageCount("s1"))
}

func TestChat_FollowUpEmptyChoices(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		functionCallResponse("get_all_orders", `{}`),
		{},
	}}
	engine, _ := newTestEngine(t, model, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	result, err := engine.Chat(context.Background(), "s1", "show orders")
	require.NoError(t, err)
	assert.Equal(t, toolOnlyResponse, result.Response)
	assert.Len(t, result.FunctionsCalled, 1)
}

func TestChat_SecondTurnContinuesHistory(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		textResponse("Hi there!"),
		textResponse("Sure, which order?"),
	}}
	engine, sessions := newTestEngine(t, model, nil)

	_, err := engine.Chat(context.Background(), "s1", "hello")
	require.NoError(t, err)
	_, err = engine.Chat(context.Background(), "s1", "cancel my order")
	require.NoError(t, err)

	// system + (user, assistant) x 2
	assert.Equal(t, 5, sessions.MessageCount("s1"))

	// The second request carried the whole conversation so far.
	reqs := model.recorded()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 4)
}

func TestChat_SessionsAreIsolated(t *testing.T) {
	model := &fakeModel{responses: []openai.Response{
		textResponse("a"),
		textResponse("b"),
	}}
	engine, sessions := newTestEngine(t, model, nil)

	engine.Chat(context.Background(), "s1", "first")
	engine.Chat(context.Background(), "s2", "second")

	assert.Equal(t, 2, sessions.SessionCount())
	assert.Equal(t, 3, sessions.MessageCount("s1"))
	assert.Equal(t, 3, sessions.MessageCount("s2"))
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt([]catalog.Descriptor{
		{Name: "get_all_orders", Description: "Lists all orders"},
		{Name: "cancel_order", Description: "Cancels an order"},
	})

	assert.Contains(t, prompt, "HARD RULES")
	assert.Contains(t, prompt, "NEVER guess")
	assert.Contains(t, prompt, "What you can do:")
	assert.Contains(t, prompt, "- Lists all orders\n")
	assert.Contains(t, prompt, "- Cancels an order\n")
}

func TestBuildSystemPrompt_NoTools(t *testing.T) {
	prompt := BuildSystemPrompt(nil)
	assert.Contains(t, prompt, "What you can do:")
	assert.NotContains(t, prompt, "\n- ")
}
