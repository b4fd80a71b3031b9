package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"llm-cli/internal/provider"
)

// Format selects the on-disk shape of a record.
type Format string

const (
	// FormatYAML writes sent/received sections with provider and model and
	// the text as a literal block, each line trimmed. This is the default.
	FormatYAML Format = "yaml"
	// FormatJSON writes in/out sections with the raw text and the model only.
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown log format %q (want yaml or json)", s)
}

func (f Format) Ext() string {
	return "." + string(f)
}

const stampLayout = "20060102T150405.000000"

// Filename derives the record file name from the serialization time.
func (f Format) Filename(rec Record, at time.Time) string {
	stamp := at.UTC().Format(stampLayout)
	model := safeName(rec.model)
	if f == FormatJSON {
		return stamp + "-" + model + f.Ext()
	}
	return stamp + "-" + string(rec.provider) + "-" + model + f.Ext()
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// TrimLines strips leading and trailing whitespace from every line of s.
// The YAML shape stores text this way; the original indentation is lost.
func TrimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// epoch is a time written as fractional seconds since the Unix epoch.
type epoch float64

func toEpoch(t time.Time) epoch {
	return epoch(float64(t.UnixMicro()) / 1e6)
}

func (e epoch) Time() time.Time {
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond))
}

func (e epoch) String() string {
	return strconv.FormatFloat(float64(e), 'f', 6, 64)
}

func (e epoch) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: e.String()}, nil
}

func (e epoch) MarshalJSON() ([]byte, error) {
	return []byte(e.String()), nil
}

type blockText string

// A literal block cannot keep a leading empty line (the encoder emits an
// indentation indicator and the line is lost on decode), so such text is
// written double-quoted instead.
func (b blockText) MarshalYAML() (interface{}, error) {
	style := yaml.LiteralStyle
	if strings.HasPrefix(string(b), "\n") {
		style = yaml.DoubleQuotedStyle
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Style: style, Value: string(b)}, nil
}

type yamlSide struct {
	Timestamp epoch     `yaml:"timestamp"`
	Text      blockText `yaml:"text"`
	Provider  string    `yaml:"provider"`
	Model     string    `yaml:"model"`
}

type yamlDoc struct {
	Sent     yamlSide `yaml:"sent"`
	Received yamlSide `yaml:"received"`
}

type jsonSide struct {
	Timestamp epoch  `json:"timestamp"`
	Text      string `json:"text"`
	Model     string `json:"model"`
}

type jsonDoc struct {
	In  jsonSide `json:"in"`
	Out jsonSide `json:"out"`
}

// Marshal renders rec in the given shape.
func (f Format) Marshal(rec Record) ([]byte, error) {
	switch f {
	case FormatYAML:
		doc := yamlDoc{
			Sent: yamlSide{
				Timestamp: toEpoch(rec.sentAt),
				Text:      blockText(TrimLines(rec.prompt)),
				Provider:  string(rec.provider),
				Model:     rec.model,
			},
			Received: yamlSide{
				Timestamp: toEpoch(rec.receivedAt),
				Text:      blockText(TrimLines(rec.output)),
				Provider:  string(rec.provider),
				Model:     rec.model,
			},
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		doc := jsonDoc{
			In:  jsonSide{Timestamp: toEpoch(rec.sentAt), Text: rec.prompt, Model: rec.model},
			Out: jsonSide{Timestamp: toEpoch(rec.receivedAt), Text: rec.output, Model: rec.model},
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown log format %q", f)
}

// Unmarshal parses a document written by Marshal. The JSON shape carries no
// provider, so it is inferred from the model family.
func (f Format) Unmarshal(data []byte) (Record, error) {
	switch f {
	case FormatYAML:
		var doc yamlDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Record{}, fmt.Errorf("decode yaml: %w", err)
		}
		p, err := provider.Parse(doc.Sent.Provider)
		if err != nil {
			return Record{}, err
		}
		return NewRecord(p, doc.Sent.Model, string(doc.Sent.Text), string(doc.Received.Text),
			doc.Sent.Timestamp.Time(), doc.Received.Timestamp.Time())
	case FormatJSON:
		var doc jsonDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return Record{}, fmt.Errorf("decode json: %w", err)
		}
		p, err := provider.Infer(doc.In.Model)
		if err != nil {
			return Record{}, err
		}
		return NewRecord(p, doc.In.Model, doc.In.Text, doc.Out.Text,
			doc.In.Timestamp.Time(), doc.Out.Timestamp.Time())
	}
	return Record{}, fmt.Errorf("unknown log format %q", f)
}
