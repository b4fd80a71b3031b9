package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"llm-cli/internal/config"
	"llm-cli/internal/llm"
	"llm-cli/internal/provider"
	"llm-cli/internal/storage"
)

type stubClient struct {
	resp    llm.Response
	err     error
	prompts []string
}

func (s *stubClient) Generate(_ context.Context, prompt string) (llm.Response, error) {
	s.prompts = append(s.prompts, prompt)
	return s.resp, s.err
}

type stubFactory struct {
	client   *stubClient
	err      error
	provider provider.Provider
	model    string
	calls    int
}

func (f *stubFactory) CreateClient(p provider.Provider, model string) (llm.Client, error) {
	f.calls++
	f.provider, f.model = p, model
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

type harness struct {
	app     *App
	factory *stubFactory
	dir     string
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
}

func newHarness(t *testing.T, stdin string, resp llm.Response) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.FromMap(map[string]string{"LLM_LOG_DIR": dir})
	require.NoError(t, err)
	h := &harness{
		factory: &stubFactory{client: &stubClient{resp: resp}},
		dir:     dir,
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
	}
	h.app = New(cfg, strings.NewReader(stdin), h.stdout, h.stderr)
	h.app.Clients = h.factory
	return h
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, filepath.Join(h.dir, e.Name()))
	}
	return out
}

func TestRunSuccess(t *testing.T) {
	for _, p := range provider.All() {
		t.Run(string(p), func(t *testing.T) {
			h := newHarness(t, "What is 2+2?\n", llm.Response{Content: "4\n\n"})
			code := h.app.Run(context.Background(), "/usr/bin/llm", []string{string(p), "some-model"})
			require.Equal(t, ExitOK, code, h.stderr.String())
			require.Equal(t, "4\n", h.stdout.String())
			require.Empty(t, h.stderr.String())
			require.Equal(t, p, h.factory.provider)
			require.Equal(t, []string{"What is 2+2?\n"}, h.factory.client.prompts)

			files := h.files(t)
			require.Len(t, files, 1)
			require.True(t, strings.HasSuffix(files[0], "-"+string(p)+"-some-model.yaml"), files[0])

			rec, err := storage.Load(files[0])
			require.NoError(t, err)
			require.Equal(t, "What is 2+2?\n", rec.Prompt())
			require.Equal(t, "4\n\n", rec.Output())
			require.False(t, rec.ReceivedAt().Before(rec.SentAt()))
		})
	}
}

func TestRunSymlinkNames(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{Content: "hello"})
	require.Equal(t, ExitOK, h.app.Run(context.Background(), "llm-openai-gpt-4", nil))
	require.Equal(t, provider.OpenAI, h.factory.provider)
	require.Equal(t, "gpt-4", h.factory.model)

	h = newHarness(t, "hi", llm.Response{Content: "hello"})
	require.Equal(t, ExitOK, h.app.Run(context.Background(), "llm-grok-1", nil))
	require.Equal(t, provider.XAI, h.factory.provider)
	require.Equal(t, "grok-1", h.factory.model)
}

func TestRunJSONFormatFlag(t *testing.T) {
	h := newHarness(t, "  raw prompt\n", llm.Response{Content: "out"})
	code := h.app.Run(context.Background(), "llm-gpt-4", []string{"-format", "json"})
	require.Equal(t, ExitOK, code, h.stderr.String())

	files := h.files(t)
	require.Len(t, files, 1)
	require.True(t, strings.HasSuffix(files[0], "-gpt-4.json"), files[0])
	rec, err := storage.Load(files[0])
	require.NoError(t, err)
	require.Equal(t, "  raw prompt\n", rec.Prompt())
}

func TestRunDirFlag(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{Content: "out"})
	other := t.TempDir()
	code := h.app.Run(context.Background(), "llm", []string{"-dir", other, "anthropic", "claude-3-haiku"})
	require.Equal(t, ExitOK, code, h.stderr.String())
	require.Empty(t, h.files(t))
	entries, err := os.ReadDir(other)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunEmptyPrompt(t *testing.T) {
	for _, stdin := range []string{"", "  \n\t\n"} {
		h := newHarness(t, stdin, llm.Response{Content: "never"})
		code := h.app.Run(context.Background(), "llm", []string{"openai", "gpt-4"})
		require.Equal(t, ExitUsage, code)
		require.Empty(t, h.stdout.String())
		require.True(t, strings.HasPrefix(h.stderr.String(), "Error: "))
		require.Zero(t, h.factory.calls)
		require.Empty(t, h.files(t))
	}
}

func TestRunInvalidProviderNeverCallsOut(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{Content: "never"})
	code := h.app.Run(context.Background(), "llm-mistral-large", nil)
	require.Equal(t, ExitUsage, code)
	require.Zero(t, h.factory.calls)
	require.Contains(t, h.stderr.String(), "invalid provider")
	require.Empty(t, h.stdout.String())
	require.Empty(t, h.files(t))
}

func TestRunUsageErrors(t *testing.T) {
	cases := map[string][]string{
		"model only":     {"gpt-4"},
		"no args":        nil,
		"unknown flag":   {"-nope", "openai", "gpt-4"},
		"unknown format": {"-format", "xml", "openai", "gpt-4"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, "hi", llm.Response{Content: "never"})
			code := h.app.Run(context.Background(), "llm", args)
			require.Equal(t, ExitUsage, code)
			require.Zero(t, h.factory.calls)
			require.Equal(t, 1, strings.Count(h.stderr.String(), "\n"), h.stderr.String())
			require.True(t, strings.HasPrefix(h.stderr.String(), "Error: "))
		})
	}
}

func TestRunUnknownModel(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{Content: "never"})
	code := h.app.Run(context.Background(), "llm-mistral", nil)
	require.Equal(t, ExitUsage, code)
	require.Contains(t, h.stderr.String(), "unknown model")
}

func TestRunProviderError(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{})
	h.factory.client.err = errors.New("401 Unauthorized:\ninvalid api key")
	code := h.app.Run(context.Background(), "llm", []string{"openai", "gpt-4"})
	require.Equal(t, ExitError, code)
	require.Empty(t, h.stdout.String())
	require.Equal(t, "Error: provider call failed: 401 Unauthorized: invalid api key\n", h.stderr.String())
	require.Len(t, h.factory.client.prompts, 1)
	require.Empty(t, h.files(t))
}

func TestRunClientConstructionError(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{})
	h.factory.err = errors.New("no credentials")
	code := h.app.Run(context.Background(), "llm", []string{"google", "gemini-pro"})
	require.Equal(t, ExitError, code)
	require.Contains(t, h.stderr.String(), "no credentials")
	require.Empty(t, h.files(t))
}

func TestRunPersistenceErrorAfterPrinting(t *testing.T) {
	h := newHarness(t, "hi", llm.Response{Content: "kept"})
	missing := filepath.Join(h.dir, "does", "not", "exist")
	code := h.app.Run(context.Background(), "llm", []string{"-dir", missing, "openai", "gpt-4"})
	require.Equal(t, ExitError, code)
	require.Equal(t, "kept\n", h.stdout.String())
	require.Contains(t, h.stderr.String(), "cannot write interaction log")
}

func TestRunHelp(t *testing.T) {
	h := newHarness(t, "", llm.Response{})
	code := h.app.Run(context.Background(), "llm", []string{"-h"})
	require.Equal(t, ExitOK, code)
	require.Contains(t, h.stderr.String(), "usage: llm")
	require.Zero(t, h.factory.calls)
}
