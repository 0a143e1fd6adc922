package config

// Config is the root configuration for orderdesk.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	OpenAI  OpenAIConfig  `yaml:"openai,omitempty"`
	Tools   ToolsConfig   `yaml:"tools,omitempty"`
	Orders  OrdersConfig  `yaml:"orders,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// ServerConfig controls the chat HTTP/WebSocket server.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// OpenAIConfig configures the completion-model API.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey,omitempty"` // supports ${ENV_VAR} references
	APIURL string `yaml:"apiUrl,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// ToolsConfig points at the tool-provider server.
type ToolsConfig struct {
	ServerURL string `yaml:"serverUrl,omitempty"`
}

// OrdersConfig configures the order backend service.
type OrdersConfig struct {
	BaseURL string `yaml:"baseUrl,omitempty"` // order backend REST base, consumed by the tool proxy
	Port    int    `yaml:"port,omitempty"`    // listen port when running cmd/order-api
	DBPath  string `yaml:"dbPath,omitempty"`  // sqlite path, ":memory:" for ephemeral
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}
