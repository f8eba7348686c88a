// Package config holds the service settings. Values come from flags, then
// environment variables (optionally seeded from a .env file), then defaults.
package config

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// Config is parsed by kong; every field can be set by flag or environment.
type Config struct {
	Host string `help:"Listen host." default:"0.0.0.0" env:"HOST"`
	Port int    `help:"Listen port." default:"8334" env:"PORT"`

	OpenAIAPIKey string `name:"openai-api-key" help:"OpenAI credential." env:"OPENAI_API_KEY"`
	BackendURL   string `name:"backend-url" help:"Base URL of the liquor backend." env:"SQL_BACKEND_API_URL"`
	CatalogURL   string `name:"catalog-url" help:"Base URL of the liquor catalog." default:"https://drink1.deren.life" env:"CATALOG_API_URL"`

	Provider       string `help:"LLM provider (openai, anthropic, gemini, ollama, dummy)." default:"openai" env:"LLM_PROVIDER" enum:"openai,anthropic,claude,gemini,google,ollama,dummy"`
	Model          string `help:"Model for triage and specialists." default:"gpt-4o" env:"LLM_MODEL"`
	SearchProvider string `name:"search-provider" help:"Provider for web search." default:"openai" env:"SEARCH_PROVIDER"`
	SearchModel    string `name:"search-model" help:"Search-capable model; empty reuses --model." default:"gpt-4o-mini-search-preview" env:"SEARCH_MODEL"`

	MaxTurns          int           `name:"max-turns" help:"Model invocations allowed per request." default:"10" env:"MAX_TURNS"`
	MaxConcurrentRuns int           `name:"max-concurrent-runs" help:"Concurrent delegation runs." default:"64" env:"MAX_CONCURRENT_RUNS"`
	OutboundTimeout   time.Duration `name:"outbound-timeout" help:"Timeout for catalog and backend calls; 0 disables." default:"0s" env:"OUTBOUND_TIMEOUT"`
	RequestTimeout    time.Duration `name:"request-timeout" help:"Deadline for a whole chat run; 0 disables." default:"0s" env:"REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `name:"shutdown-timeout" help:"Grace period for in-flight requests on shutdown." default:"10s" env:"SHUTDOWN_TIMEOUT"`

	DatabaseURL string `name:"database-url" help:"Postgres DSN for the audit trail; empty disables it." env:"DATABASE_URL"`

	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format (simple, verbose, json)." default:"simple" env:"LOG_FORMAT"`
}

// Parse builds a Config from args and the environment.
func Parse(name string, args []string) (*Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg, kong.Name(name), kong.Description("Liquor cabinet chat service."))
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HTTPClient is the client used for catalog and backend calls.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.OutboundTimeout}
}

// Warnings lists settings that are missing but not fatal at startup.
func (c *Config) Warnings() []string {
	var out []string
	if strings.TrimSpace(c.BackendURL) == "" {
		out = append(out, "SQL_BACKEND_API_URL is not set; cabinet changes will fail")
	}
	if c.Provider == "openai" && c.OpenAIAPIKey == "" {
		out = append(out, "OPENAI_API_KEY is not set; model calls will fail")
	}
	return out
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive, got %d", c.MaxTurns)
	}
	if c.OutboundTimeout < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
