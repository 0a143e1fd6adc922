package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	cfg.OpenAI.APIKey = expandEnvVars(cfg.OpenAI.APIKey)
	return cfg, nil
}

// Error is a configuration loading error.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.OpenAI.APIURL == "" {
		cfg.OpenAI.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4"
	}
	if cfg.Tools.ServerURL == "" {
		cfg.Tools.ServerURL = "http://localhost:8081"
	}
	if cfg.Orders.BaseURL == "" {
		cfg.Orders.BaseURL = "http://localhost:8082/api/orders"
	}
	if cfg.Orders.Port == 0 {
		cfg.Orders.Port = 8082
	}
	if cfg.Orders.DBPath == "" {
		cfg.Orders.DBPath = ":memory:"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads ORDERDESK_* environment variables and overrides
// config values. OPENAI_API_KEY is honored directly for parity with the
// usual OpenAI tooling.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ORDERDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ORDERDESK_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("ORDERDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ORDERDESK_TOOLS_URL"); v != "" {
		cfg.Tools.ServerURL = v
	}
	if v := os.Getenv("ORDERDESK_ORDERS_URL"); v != "" {
		cfg.Orders.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
}
