package openai

// Role constants for messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function" // carries a tool result back to the model
)

// Finish reasons reported by the model.
const (
	FinishStop         = "stop"
	FinishLength       = "length"
	FinishFunctionCall = "function_call"
)

// Message is a single conversation entry on the wire. Assistant messages may
// carry a FunctionCall instead of content; function-role messages carry the
// originating function name.
type Message struct {
	Role         string        `json:"role"`
	Content      string        `json:"content"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// FunctionCall is the model's request to invoke a declared function.
// Arguments is an encoded JSON object, not yet decoded.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Function declares a callable tool to the model.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters is the JSON-schema-like parameter declaration.
type Parameters struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// Request is a chat-completion request.
type Request struct {
	Model        string     `json:"model"`
	Messages     []Message  `json:"messages"`
	Functions    []Function `json:"functions,omitempty"`
	FunctionCall string     `json:"function_call,omitempty"` // "auto" or a function name
}

// Response is a chat-completion response.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one candidate completion.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"` // "stop" | "length" | "function_call"
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
