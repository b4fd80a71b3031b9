package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Provider credentials. They are not validated here: a missing key only
	// matters for the provider actually selected, and the SDK reports it.
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL   string `env:"ANTHROPIC_BASE_URL"`
	// Kept raw: it is checked when an Anthropic client is built, so a bad
	// value cannot break the other providers.
	AnthropicMaxTokens string `env:"ANTHROPIC_MAX_TOKENS" envDefault:"4096"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL"`

	XAIAPIKey  string `env:"XAI_API_KEY"`
	XAIBaseURL string `env:"XAI_BASE_URL" envDefault:"https://api.x.ai/v1"`

	// Interaction logs
	LogDir    string `env:"LLM_LOG_DIR" envDefault:"."`
	LogFormat string `env:"LLM_LOG_FORMAT" envDefault:"yaml"`

	// Diagnostics
	LogLevel string `env:"LLM_LOG_LEVEL" envDefault:"warn"`
}

// New reads the configuration from the process environment.
func New() (*Config, error) {
	return parse(env.Options{})
}

// FromMap reads the configuration from the given variables only.
func FromMap(vars map[string]string) (*Config, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
