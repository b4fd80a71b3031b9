package provider

import (
	"errors"
	"fmt"
	"strings"
)

type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Google    Provider = "google"
	XAI       Provider = "xai"
)

var (
	ErrInvalid      = errors.New("invalid provider")
	ErrUnknownModel = errors.New("unknown model")
)

// families maps a model family name to the provider that serves it.
// A model belongs to family f when it equals f or starts with f followed by "-".
var families = map[string]Provider{
	"gpt":     OpenAI,
	"chatgpt": OpenAI,
	"o1":      OpenAI,
	"o3":      OpenAI,
	"o4":      OpenAI,
	"claude":  Anthropic,
	"gemini":  Google,
	"gemma":   Google,
	"grok":    XAI,
}

func All() []Provider {
	return []Provider{OpenAI, Anthropic, Google, XAI}
}

func (p Provider) String() string {
	return string(p)
}

func (p Provider) Valid() bool {
	switch p {
	case OpenAI, Anthropic, Google, XAI:
		return true
	}
	return false
}

// Parse converts a provider token into a Provider.
func Parse(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w %q (supported: %s)", ErrInvalid, s, strings.Join(names(), ", "))
	}
	return p, nil
}

// Infer returns the provider owning the family prefix of model.
func Infer(model string) (Provider, error) {
	m := strings.ToLower(model)
	family := m
	if i := strings.IndexByte(m, '-'); i >= 0 {
		family = m[:i]
	}
	if p, ok := families[family]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w %q: no known model family prefix", ErrUnknownModel, model)
}

func names() []string {
	all := All()
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, string(p))
	}
	return out
}
