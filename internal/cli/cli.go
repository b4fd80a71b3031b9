// Package cli runs one prompt through the resolve, invoke, print and log
// steps and maps any failure to a single "Error:" line and an exit code.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"llm-cli/internal/config"
	"llm-cli/internal/llm"
	"llm-cli/internal/provider"
	"llm-cli/internal/resolve"
	"llm-cli/internal/storage"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ClientFactory builds the client for the resolved provider.
type ClientFactory interface {
	CreateClient(p provider.Provider, model string) (llm.Client, error)
}

type App struct {
	Config  *config.Config
	Clients ClientFactory
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

func New(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		Config:  cfg,
		Clients: llm.NewFactory(cfg),
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}
}

// Run executes a single invocation and returns the process exit code.
// argv0 is the name the program was started under.
func (a *App) Run(ctx context.Context, argv0 string, args []string) int {
	err := a.run(ctx, argv0, args)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, flag.ErrHelp):
		return ExitOK
	}
	fmt.Fprintf(a.Stderr, "Error: %s\n", oneLine(err.Error()))
	if isUsage(err) {
		return ExitUsage
	}
	return ExitError
}

func (a *App) run(ctx context.Context, argv0 string, args []string) error {
	name := filepath.Base(argv0)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", a.Config.LogFormat, "interaction log format: yaml or json")
	dir := fs.String("dir", a.Config.LogDir, "directory for interaction logs")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			a.usage(fs)
			return err
		}
		return fmt.Errorf("%w: %w", resolve.ErrUsage, err)
	}

	target, err := resolve.Resolve(argv0, fs.Args())
	if err != nil {
		return err
	}
	log.Debug().Str("provider", string(target.Provider)).Str("model", target.Model).
		Bool("inferred", target.Inferred).Msg("resolved target")

	f, err := storage.ParseFormat(*format)
	if err != nil {
		return fmt.Errorf("%w: %w", resolve.ErrUsage, err)
	}
	recorder, err := storage.NewFileRecorder(*dir, f)
	if err != nil {
		return fmt.Errorf("%w: %w", resolve.ErrUsage, err)
	}

	prompt, err := readPrompt(a.Stdin)
	if err != nil {
		return err
	}

	client, err := a.Clients.CreateClient(target.Provider, target.Model)
	if err != nil {
		return fmt.Errorf("%w: %w", llm.ErrProviderCall, err)
	}
	ex, err := llm.Send(ctx, client, prompt)
	if err != nil {
		return err
	}
	log.Debug().Str("model", ex.Model).Dur("elapsed", ex.ReceivedAt.Sub(ex.SentAt)).
		Int("total_tokens", ex.TotalTokens).Msg("response received")

	if _, err := fmt.Fprintln(a.Stdout, strings.TrimRight(ex.Content, "\r\n")); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	rec, err := storage.NewRecord(target.Provider, target.Model, prompt, ex.Content, ex.SentAt, ex.ReceivedAt)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrPersistence, err)
	}
	path, err := recorder.Record(rec)
	if err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("interaction logged")
	return nil
}

func (a *App) usage(fs *flag.FlagSet) {
	prefix, _, _ := strings.Cut(fs.Name(), "-")
	fmt.Fprintf(a.Stderr, "usage: %s [flags] <provider> <model> < prompt\n", prefix)
	fmt.Fprintf(a.Stderr, "       %s-<provider>[-<model>] [model] < prompt\n", prefix)
	fmt.Fprintf(a.Stderr, "       %s-<model> [model] < prompt\n", prefix)
	fmt.Fprintf(a.Stderr, "providers: %s\n", strings.Join(providerNames(), ", "))
	fs.SetOutput(a.Stderr)
	fs.PrintDefaults()
}

func providerNames() []string {
	var out []string
	for _, p := range provider.All() {
		out = append(out, string(p))
	}
	return out
}

func readPrompt(r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: no prompt on standard input", resolve.ErrUsage)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt := string(b)
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt on standard input", resolve.ErrUsage)
	}
	return prompt, nil
}

func isUsage(err error) bool {
	return errors.Is(err, resolve.ErrUsage) ||
		errors.Is(err, resolve.ErrInvalidProvider) ||
		errors.Is(err, resolve.ErrUnknownModel)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
