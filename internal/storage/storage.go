package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"llm-cli/internal/provider"
)

// ErrPersistence wraps every failure to create or write a record file.
var ErrPersistence = errors.New("cannot write interaction log")

// Record is one prompt/response exchange. It is immutable once built and is
// written exactly once, to a file of its own.
type Record struct {
	prompt     string
	output     string
	provider   provider.Provider
	model      string
	sentAt     time.Time
	receivedAt time.Time
}

func NewRecord(p provider.Provider, model, prompt, output string, sentAt, receivedAt time.Time) (Record, error) {
	switch {
	case prompt == "":
		return Record{}, errors.New("record: empty prompt")
	case !p.Valid():
		return Record{}, fmt.Errorf("record: %w %q", provider.ErrInvalid, p)
	case strings.TrimSpace(model) == "":
		return Record{}, errors.New("record: empty model")
	case receivedAt.Before(sentAt):
		return Record{}, fmt.Errorf("record: received at %s before sent at %s", receivedAt, sentAt)
	}
	return Record{
		prompt:     prompt,
		output:     output,
		provider:   p,
		model:      model,
		sentAt:     sentAt,
		receivedAt: receivedAt,
	}, nil
}

func (r Record) Prompt() string              { return r.prompt }
func (r Record) Output() string              { return r.output }
func (r Record) Provider() provider.Provider { return r.provider }
func (r Record) Model() string               { return r.model }
func (r Record) SentAt() time.Time           { return r.sentAt }
func (r Record) ReceivedAt() time.Time       { return r.receivedAt }

// Recorder abstracts persistence of interaction records.
type Recorder interface {
	Record(rec Record) (string, error)
}
