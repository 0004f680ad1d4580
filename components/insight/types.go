package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Fetcher retrieves a single insight from the remote backend. Implementations
// live outside this package (pkg/insightapi ships the HTTP client) so the
// rendering logic never depends on a concrete transport.
type Fetcher interface {
	FetchInsight(ctx context.Context, insightID string) (Insight, error)
}

// Invoker is the generic backend-function contract used by the data feeds.
// A non-nil error carries the message reported by the remote envelope.
type Invoker interface {
	Invoke(ctx context.Context, function string, body any) (json.RawMessage, error)
}

// Renderer describes the template renderer contract needed by the widget.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// HostDocument is the capability surface the widget needs from the page it
// renders into. Production code uses the goquery-backed Document; tests
// inject fakes.
type HostDocument interface {
	ElementByID(id string) (Element, bool)
	HasStylesheet(id string) bool
	InjectStylesheet(id, css string)
}

// Element is a single container the widget writes markup into.
type Element interface {
	AddClass(name string)
	SetHTML(html string) error
}

// Insight is a single predictive-analytics result owned by the remote
// backend. The core never mutates it, only caches a copy.
type Insight struct {
	ID               string           `json:"id"`
	ModelName        string           `json:"model_name"`
	PredictionOutput PredictionOutput `json:"prediction_output"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PredictionOutput wraps the arbitrary output object of a model run. It keeps
// the raw JSON alongside the decoded fields so ordered scans and verbatim
// dumps stay faithful to the document the backend produced.
type PredictionOutput struct {
	raw    []byte
	fields map[string]any
}

// NewPredictionOutput builds an output from raw JSON. Useful for fixtures.
func NewPredictionOutput(raw []byte) (PredictionOutput, error) {
	var out PredictionOutput
	if err := out.UnmarshalJSON(raw); err != nil {
		return PredictionOutput{}, err
	}
	return out, nil
}

// UnmarshalJSON decodes the object while retaining the original bytes.
// Non-object outputs are kept raw with no addressable fields; the display
// fallback chain degrades to the JSON dump instead of failing.
func (p *PredictionOutput) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("insight: decode prediction output: invalid JSON")
	}
	fields := map[string]any{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return fmt.Errorf("insight: decode prediction output: %w", err)
		}
	}
	p.raw = append([]byte(nil), data...)
	p.fields = fields
	return nil
}

// MarshalJSON emits the original document unchanged.
func (p PredictionOutput) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("{}"), nil
	}
	return p.raw, nil
}

// Field returns a named output field.
func (p PredictionOutput) Field(name string) (any, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// Len reports the number of output fields.
func (p PredictionOutput) Len() int { return len(p.fields) }

// Confidence returns the model confidence, defaulting to 0.85 when the
// output does not carry one.
func (p PredictionOutput) Confidence() float64 {
	if v, ok := p.fields["confidence"]; ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return defaultConfidence
}

// FirstNumeric scans the output in document order and returns the first
// numeric field value.
func (p PredictionOutput) FirstNumeric() (float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(p.raw))
	dec.UseNumber()
	// consume the opening brace; a non-object output has no fields
	tok, err := dec.Token()
	if err != nil {
		return 0, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, false
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return 0, false
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return 0, false
		}
		if num, ok := value.(json.Number); ok {
			if f, err := num.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// JSON returns the compacted raw document, the last-resort display value.
func (p PredictionOutput) JSON() string {
	if len(p.raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, p.raw); err != nil {
		return string(p.raw)
	}
	return buf.String()
}

// RenderOptions configures a single render call. Zero-value visibility flags
// mean "show"; themes fall back to the widget default.
type RenderOptions struct {
	InsightID      string `json:"insight_id"`
	ContainerID    string `json:"container_id"`
	Theme          string `json:"theme,omitempty"`
	ShowTitle      *bool  `json:"show_title,omitempty"`
	ShowConfidence *bool  `json:"show_confidence,omitempty"`
	Compact        bool   `json:"compact,omitempty"`
}

func (o RenderOptions) showTitle() bool      { return o.ShowTitle == nil || *o.ShowTitle }
func (o RenderOptions) showConfidence() bool { return o.ShowConfidence == nil || *o.ShowConfidence }

// FeedEvent describes a feed refresh that transports might care about.
type FeedEvent struct {
	CacheKey string    `json:"cache_key"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// RefreshHook notifies transports (REST/WebSocket/SSE) about feed refreshes.
type RefreshHook interface {
	FeedRefreshed(ctx context.Context, event FeedEvent) error
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
