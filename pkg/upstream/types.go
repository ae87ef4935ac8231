package upstream

import (
	"encoding/json"
	"time"
)

// ChatRequest is an OpenAI-compatible chat completion request as received
// from a caller. Only the fields the gateway inspects are typed; every
// other field the caller supplied is preserved in Extra and forwarded to
// the upstream unmodified.
type ChatRequest struct {
	// Model is the model identifier requested by the caller. It is
	// replaced by the provider's model override before dispatch when one
	// is configured.
	Model string `json:"model,omitempty"`

	// Messages is the conversation history. Message bodies are relayed
	// verbatim; the gateway only requires the sequence to be non-empty.
	Messages []json.RawMessage `json:"messages"`

	// Stream selects the SSE streaming response mode.
	Stream bool `json:"stream,omitempty"`

	// Extra holds every caller-supplied field not typed above
	// (temperature, max_tokens, tools, ...). It round-trips through
	// UnmarshalJSON/MarshalJSON so the outbound request matches the
	// inbound one except for the model merge.
	Extra map[string]json.RawMessage `json:"-"`
}

// chatRequestAlias avoids UnmarshalJSON recursion.
type chatRequestAlias ChatRequest

// UnmarshalJSON decodes the typed fields and captures all remaining
// fields into Extra.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var typed chatRequestAlias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	delete(fields, "model")
	delete(fields, "messages")
	delete(fields, "stream")
	if len(fields) == 0 {
		fields = nil
	}

	*r = ChatRequest(typed)
	r.Extra = fields
	return nil
}

// MarshalJSON re-assembles the typed fields and the Extra passthrough
// fields into a single object.
func (r *ChatRequest) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.Extra)+3)
	for k, v := range r.Extra {
		fields[k] = v
	}

	if r.Model != "" {
		model, err := json.Marshal(r.Model)
		if err != nil {
			return nil, err
		}
		fields["model"] = model
	}

	messages, err := json.Marshal(r.Messages)
	if err != nil {
		return nil, err
	}
	fields["messages"] = messages

	if r.Stream {
		fields["stream"] = json.RawMessage("true")
	}

	return json.Marshal(fields)
}

// WithModel returns a copy of the request with the model field replaced.
// The receiver is not modified; the copy shares the Messages and Extra
// backing data, which are never mutated after parse.
func (r *ChatRequest) WithModel(model string) *ChatRequest {
	out := *r
	out.Model = model
	return &out
}

// NewProbeRequest builds the minimal synthetic completion used by the
// recovery prober: a single short user message capped at one token.
func NewProbeRequest(model string) *ChatRequest {
	return &ChatRequest{
		Model: model,
		Messages: []json.RawMessage{
			json.RawMessage(`{"role":"user","content":"ping"}`),
		},
		Extra: map[string]json.RawMessage{
			"max_tokens": json.RawMessage("1"),
		},
	}
}

// Config contains the immutable settings for one upstream provider
// client. It mirrors the provider section of the gateway configuration.
type Config struct {
	// Name identifies the provider in logs and metrics.
	Name string

	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	// The chat-completions path is appended by the client.
	BaseURL string

	// APIKey is the credential sent as a bearer token.
	APIKey string

	// Model is the optional forced model. When set, every request routed
	// to this provider is dispatched with this model. It is also the
	// model used for recovery probes.
	Model string

	// ProbeModel is the model used for recovery probes when Model is
	// empty.
	ProbeModel string

	// Timeout bounds each synchronous attempt against this provider.
	// For streaming calls it bounds the connection and response-header
	// phases only; an open stream may run for as long as it produces
	// events.
	Timeout time.Duration

	// Retries is the number of additional same-provider attempts on a
	// transport-class failure. Zero means a single attempt.
	Retries int

	// Connection pool tuning. Zero values fall back to net/http
	// defaults.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// ProbeModelName returns the model the recovery prober should use for
// this provider.
func (c Config) ProbeModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return c.ProbeModel
}
