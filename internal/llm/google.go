package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

type GoogleClient struct {
	apiKey  string
	baseURL string
	model   string
}

func NewGoogle(apiKey, baseURL, model string) *GoogleClient {
	return &GoogleClient{apiKey: apiKey, baseURL: baseURL, model: model}
}

// Generate creates the genai client per call: genai.NewClient validates the
// key eagerly, and that failure belongs to the provider call.
func (c *GoogleClient) Generate(ctx context.Context, prompt string) (Response, error) {
	cc := &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return Response{}, fmt.Errorf("failed to init genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return Response{}, fmt.Errorf("generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("generate content returned no candidates")
	}

	out := Response{Content: resp.Text(), Model: c.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}
