// Package resolve maps an invocation (program name plus positional
// arguments) to the provider and model a prompt should be sent to.
//
// The executable may be symlinked under a name that carries the target:
//
//	llm-openai-gpt-4   provider and model from the name
//	llm-openai         provider from the name, model from the first argument
//	llm-gpt-4          provider inferred from the model family
//	llm                provider and model as arguments
package resolve

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"llm-cli/internal/provider"
)

var (
	ErrUsage           = errors.New("usage")
	ErrInvalidProvider = provider.ErrInvalid
	ErrUnknownModel    = provider.ErrUnknownModel
)

type Target struct {
	Provider provider.Provider
	Model    string
	// Inferred is set when the provider came from the model family.
	Inferred bool
}

func (t Target) String() string {
	return string(t.Provider) + "/" + t.Model
}

// Resolve determines the target from the invocation basename and the
// positional arguments left after flag parsing.
func Resolve(basename string, args []string) (Target, error) {
	base := filepath.Base(basename)
	// Model names contain dots, so only the Windows executable suffix is stripped.
	if strings.EqualFold(filepath.Ext(base), ".exe") {
		base = base[:len(base)-len(".exe")]
	}
	_, suffix, _ := strings.Cut(base, "-")

	if suffix == "" {
		return fromArgs(args)
	}

	head, rest, _ := strings.Cut(suffix, "-")
	if p, err := provider.Parse(head); err == nil {
		return fromProviderName(p, rest, args)
	}
	return fromModelName(suffix, args)
}

func fromArgs(args []string) (Target, error) {
	switch len(args) {
	case 0:
		return Target{}, fmt.Errorf("%w: provider and model are required", ErrUsage)
	case 1:
		return Target{}, fmt.Errorf("%w: model %q given without a provider", ErrUsage, args[0])
	case 2:
	default:
		return Target{}, fmt.Errorf("%w: expected <provider> <model>, got %d arguments", ErrUsage, len(args))
	}
	p, err := provider.Parse(args[0])
	if err != nil {
		return Target{}, err
	}
	model := strings.TrimSpace(args[1])
	if model == "" {
		return Target{}, fmt.Errorf("%w: model is empty", ErrUsage)
	}
	return Target{Provider: p, Model: model}, nil
}

func fromProviderName(p provider.Provider, model string, args []string) (Target, error) {
	if len(args) > 1 {
		return Target{}, fmt.Errorf("%w: expected at most one model argument, got %d", ErrUsage, len(args))
	}
	if len(args) == 1 {
		model = strings.TrimSpace(args[0])
	}
	if model == "" {
		return Target{}, fmt.Errorf("%w: no model given for provider %s", ErrUsage, p)
	}
	return Target{Provider: p, Model: model}, nil
}

func fromModelName(name string, args []string) (Target, error) {
	// A multi-segment name that is not a known family reads as <provider>-<model>
	// with a provider token we do not support, whatever the arguments say.
	if _, err := provider.Infer(name); err != nil && strings.Contains(name, "-") {
		head, _, _ := strings.Cut(name, "-")
		if _, perr := provider.Parse(head); perr != nil {
			return Target{}, perr
		}
	}
	if len(args) > 1 {
		return Target{}, fmt.Errorf("%w: expected at most one model argument, got %d", ErrUsage, len(args))
	}
	model := name
	if len(args) == 1 {
		model = strings.TrimSpace(args[0])
		if model == "" {
			return Target{}, fmt.Errorf("%w: model is empty", ErrUsage)
		}
	}
	p, err := provider.Infer(model)
	if err != nil {
		return Target{}, err
	}
	return Target{Provider: p, Model: model, Inferred: true}, nil
}
