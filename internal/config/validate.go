package config

import (
	"fmt"
	"slices"
	"strings"
)

// apiKeyPlaceholder is the sample value shipped in config templates. Starting
// with it still set is always a mistake.
const apiKeyPlaceholder = "your-openai-api-key-here"

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	key := strings.TrimSpace(cfg.OpenAI.APIKey)
	if key == "" || key == apiKeyPlaceholder {
		issues = append(issues, ValidationIssue{
			Path:    "openai.apiKey",
			Message: "OpenAI API key is not configured; set OPENAI_API_KEY or openai.apiKey",
		})
	}

	if cfg.Tools.ServerURL == "" {
		issues = append(issues, ValidationIssue{
			Path:    "tools.serverUrl",
			Message: "tool server URL is required",
		})
	}

	return issues
}
