package llm

import (
	"fmt"
	"strconv"
	"strings"

	"llm-cli/internal/config"
	"llm-cli/internal/provider"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey       string
	OpenaiBaseURL      string
	AnthropicAPIKey    string
	AnthropicBaseURL   string
	AnthropicMaxTokens string
	GeminiAPIKey       string
	GeminiBaseURL      string
	XAIAPIKey          string
	XAIBaseURL         string
}

type constructor func(f *Factory, model string) (Client, error)

var constructors = map[provider.Provider]constructor{
	provider.OpenAI: func(f *Factory, model string) (Client, error) {
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, model), nil
	},
	provider.XAI: func(f *Factory, model string) (Client, error) {
		return NewXAI(f.XAIAPIKey, f.XAIBaseURL, model), nil
	},
	provider.Anthropic: func(f *Factory, model string) (Client, error) {
		maxTokens, err := parseMaxTokens(f.AnthropicMaxTokens)
		if err != nil {
			return nil, err
		}
		return NewAnthropic(f.AnthropicAPIKey, f.AnthropicBaseURL, model, maxTokens), nil
	},
	provider.Google: func(f *Factory, model string) (Client, error) {
		return NewGoogle(f.GeminiAPIKey, f.GeminiBaseURL, model), nil
	},
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		OpenaiAPIKey:       cfg.OpenAIAPIKey,
		OpenaiBaseURL:      cfg.OpenAIBaseURL,
		AnthropicAPIKey:    cfg.AnthropicAPIKey,
		AnthropicBaseURL:   cfg.AnthropicBaseURL,
		AnthropicMaxTokens: cfg.AnthropicMaxTokens,
		GeminiAPIKey:       cfg.GeminiAPIKey,
		GeminiBaseURL:      cfg.GeminiBaseURL,
		XAIAPIKey:          cfg.XAIAPIKey,
		XAIBaseURL:         cfg.XAIBaseURL,
	}
}

// CreateClient builds the client for one provider only; credentials of the
// other providers are never touched.
func (f *Factory) CreateClient(p provider.Provider, model string) (Client, error) {
	build, ok := constructors[p]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", p)
	}
	if model == "" {
		return nil, fmt.Errorf("empty model for provider %s", p)
	}
	return build(f, model)
}

// parseMaxTokens reads ANTHROPIC_MAX_TOKENS. Empty means the client default.
func parseMaxTokens(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("ANTHROPIC_MAX_TOKENS must be a positive integer, got %q", s)
	}
	return n, nil
}
