package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrProviderCall wraps every failure reported by a provider SDK.
var ErrProviderCall = errors.New("provider call failed")

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client sends a single prompt and blocks until the full reply is available.
type Client interface {
	Generate(ctx context.Context, prompt string) (Response, error)
}

// Exchange is one completed prompt/response round trip.
type Exchange struct {
	Response
	SentAt     time.Time
	ReceivedAt time.Time
}

// Send performs exactly one call and brackets it with wall-clock timestamps.
func Send(ctx context.Context, c Client, prompt string) (Exchange, error) {
	return send(ctx, c, prompt, time.Now)
}

func send(ctx context.Context, c Client, prompt string, now func() time.Time) (Exchange, error) {
	sent := now()
	resp, err := c.Generate(ctx, prompt)
	received := now()
	if err != nil {
		return Exchange{}, fmt.Errorf("%w: %w", ErrProviderCall, err)
	}
	// Wall clocks can step backwards between the two readings.
	if received.Before(sent) {
		received = sent
	}
	return Exchange{Response: resp, SentAt: sent, ReceivedAt: received}, nil
}
