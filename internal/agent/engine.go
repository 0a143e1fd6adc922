// Package agent implements the tool-calling orchestration loop: one user
// utterance in, one final answer out, with at most one tool invocation in
// between.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/orderdesk/orderdesk/internal/catalog"
	"github.com/orderdesk/orderdesk/internal/history"
	"github.com/orderdesk/orderdesk/internal/invoker"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/openai"
)

// Fixed user-facing responses. A failed turn never leaks internals.
const (
	apologyResponse  = "Sorry, something went wrong. Please try again later."
	emptyResponse    = "Sorry, I could not get a response."
	toolOnlyResponse = "The operation completed successfully."
)

// ToolCallRecord captures one tool invocation for the turn's caller: the
// function name, the argument map sent, and the parsed (or raw) result.
type ToolCallRecord struct {
	FunctionName string         `json:"functionName"`
	Request      map[string]any `json:"request"`
	Response     any            `json:"response"`
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Response        string           `json:"response"`
	SessionID       string           `json:"sessionId"`
	FunctionsCalled []ToolCallRecord `json:"functionsCalled"`
}

// Engine drives the request/response cycle with the completion model and
// dispatches tool invocations it requests. It owns no per-turn state; the
// tool-call accumulator is threaded through the call chain explicitly.
type Engine struct {
	model    *openai.Client
	catalog  *catalog.Cache
	invoker  *invoker.Invoker
	sessions *history.Store
	log      *logging.Logger
}

// NewEngine wires the orchestration loop.
func NewEngine(model *openai.Client, cat *catalog.Cache, inv *invoker.Invoker, sessions *history.Store, log *logging.Logger) *Engine {
	return &Engine{
		model:    model,
		catalog:  cat,
		invoker:  inv,
		sessions: sessions,
		log:      log.Sub("agent"),
	}
}

// Sessions exposes the conversation store for introspection endpoints.
func (e *Engine) Sessions() *history.Store { return e.sessions }

// Chat processes one user utterance for the session and returns the final
// answer plus any tool calls made. Failures below the turn boundary degrade
// to a fixed apology result; the error is returned alongside it so transports
// can pick a server-error status, but the session itself is never torn down
// and partial history writes are not rolled back.
func (e *Engine) Chat(ctx context.Context, sessionID, userMessage string) (*TurnResult, error) {
	result, err := e.runTurn(ctx, sessionID, userMessage)
	if err != nil {
		e.log.Error().Err(err).Str("sessionId", sessionID).Msg("chat turn failed")
		return &TurnResult{
			Response:        apologyResponse,
			SessionID:       sessionID,
			FunctionsCalled: []ToolCallRecord{},
		}, err
	}
	return result, nil
}

func (e *Engine) runTurn(ctx context.Context, sessionID, userMessage string) (*TurnResult, error) {
	tools := e.catalog.Tools(ctx)

	// The prompt captured at session init sticks even if the catalog changes
	// later; Init is a no-op for existing sessions.
	e.sessions.Init(sessionID, BuildSystemPrompt(tools))
	e.sessions.Append(sessionID, openai.Message{
		Role:    openai.RoleUser,
		Content: userMessage,
	})

	messages := e.sessions.History(sessionID)
	e.log.Info().
		Str("sessionId", sessionID).
		Int("messages", len(messages)).
		Int("functions", len(tools)).
		Msg("sending completion request")

	resp, err := e.model.Complete(ctx, openai.Request{
		Messages:     messages,
		Functions:    catalog.FunctionDeclarations(tools),
		FunctionCall: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return &TurnResult{
			Response:        emptyResponse,
			SessionID:       sessionID,
			FunctionsCalled: []ToolCallRecord{},
		}, nil
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishFunctionCall && choice.Message.FunctionCall != nil {
		return e.handleFunctionCall(ctx, sessionID, choice.Message)
	}

	e.sessions.Append(sessionID, choice.Message)
	return &TurnResult{
		Response:        choice.Message.Content,
		SessionID:       sessionID,
		FunctionsCalled: []ToolCallRecord{},
	}, nil
}

// handleFunctionCall performs the single tool hop: invoke, record, fold the
// result back into the history, and ask the model for the final answer. A
// second function call requested by the follow-up is not served; its text
// is returned as-is.
func (e *Engine) handleFunctionCall(ctx context.Context, sessionID string, assistantMsg openai.Message) (*TurnResult, error) {
	call := assistantMsg.FunctionCall
	e.log.Info().
		Str("sessionId", sessionID).
		Str("function", call.Name).
		Msg("function call requested")

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return nil, fmt.Errorf("decoding function arguments: %w", err)
	}

	result := e.invoker.Invoke(ctx, call.Name, args)

	// Best-effort parse for the caller's record; the raw text goes to the
	// model either way.
	var parsed any
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		parsed = result
	}
	records := []ToolCallRecord{{
		FunctionName: call.Name,
		Request:      args,
		Response:     parsed,
	}}

	e.sessions.Append(sessionID, assistantMsg)
	e.sessions.Append(sessionID, openai.Message{
		Role:    openai.RoleFunction,
		Name:    call.Name,
		Content: result,
	})

	// Follow-up request carries the updated history but no function
	// declarations.
	followUp, err := e.model.Complete(ctx, openai.Request{
		Messages: e.sessions.History(sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("follow-up completion: %w", err)
	}

	if len(followUp.Choices) == 0 {
		return &TurnResult{
			Response:        toolOnlyResponse,
			SessionID:       sessionID,
			FunctionsCalled: records,
		}, nil
	}

	final := followUp.Choices[0].Message
	e.sessions.Append(sessionID, final)

	return &TurnResult{
		Response:        final.Content,
		SessionID:       sessionID,
		FunctionsCalled: records,
	}, nil
}
