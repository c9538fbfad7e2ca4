// Package llmclient is a client library for OpenAI-style chat-completion
// HTTP services: non-stream and SSE-streaming chat completions, text
// completions, embeddings, models, health, and properties, plus a
// multi-turn tool loop with budget and loop-detection guarantees.
package llmclient

import (
	"time"

	"github.com/corellm/llmclient/internal/headers"
	"github.com/corellm/llmclient/internal/obslog"
)

// Timeouts is the connect/overall/stream-idle timeout triple applied to
// every request a Client issues.
type Timeouts struct {
	Connect    time.Duration
	Overall    time.Duration
	StreamIdle time.Duration
}

// DefaultTimeouts returns a reasonable triple for talking to a remote
// chat-completion service.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Connect:    10 * time.Second,
		Overall:    120 * time.Second,
		StreamIdle: 60 * time.Second,
	}
}

// Client holds the configuration shared by every request it issues: base
// URL, model, timeouts, limits, default headers, API key, TLS/proxy
// settings, and an optional last-error slot. A Client is not safe for
// concurrent mutation (SetModel, SetAPIKey, ...) concurrent with in-flight
// requests; distinct Clients are independent and may be used concurrently.
type Client struct {
	baseURL string
	model   string

	timeouts Timeouts
	limits   Limits

	defaultHeaders []headers.Header
	authHeader     string // "Bearer <key>", empty if unset

	tls   *TLSConfig
	proxy *ProxyConfig

	transport Transport
	logger    obslog.Logger

	lastErrorEnabled bool
	lastError        *Error
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithTimeouts overrides the default connect/overall/stream-idle triple.
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) { c.timeouts = t }
}

// WithLimits overrides the default byte/count caps.
func WithLimits(l Limits) Option {
	return func(c *Client) { c.limits = l }
}

// WithDefaultHeaders sets headers sent on every request, subordinate to
// any per-request header with the same name (case-insensitive).
func WithDefaultHeaders(h ...headers.Header) Option {
	return func(c *Client) { c.defaultHeaders = append([]headers.Header(nil), h...) }
}

// WithTransport overrides the default net/http-backed Transport, chiefly
// for tests.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger overrides the client's ambient logger (default: discard).
func WithLogger(l obslog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLastError opts the client into a per-client last-error slot,
// cleared at the start of every request and readable via LastError.
func WithLastError() Option {
	return func(c *Client) { c.lastErrorEnabled = true }
}

// New constructs a Client for the given base URL and model.
func New(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		model:    model,
		timeouts: DefaultTimeouts(),
		limits:   DefaultLimits(),
		logger:   obslog.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport()
	}
	return c
}

// SetModel replaces the model used by subsequent requests. An empty
// string clears it.
func (c *Client) SetModel(model string) { c.model = model }

// Model returns the currently configured model.
func (c *Client) Model() string { return c.model }

// SetAPIKey sets the Authorization header to "Bearer <key>" for
// subsequent requests. An empty key clears it. Rejects CR/LF.
func (c *Client) SetAPIKey(key string) error {
	if key == "" {
		c.authHeader = ""
		return nil
	}
	if err := headers.Validate(key); err != nil {
		return err
	}
	c.authHeader = "Bearer " + key
	return nil
}

// SetTLSConfig replaces the TLS configuration. A nil value clears it.
func (c *Client) SetTLSConfig(cfg *TLSConfig) { c.tls = cfg }

// SetProxy replaces the proxy URL and no-proxy list. A nil value clears
// it. Rejects a proxy URL containing CR/LF.
func (c *Client) SetProxy(cfg *ProxyConfig) error {
	if cfg != nil {
		if err := headers.Validate(cfg.ProxyURL); err != nil {
			return err
		}
		for _, h := range cfg.NoProxy {
			if err := headers.Validate(h); err != nil {
				return err
			}
		}
	}
	c.proxy = cfg
	return nil
}

// LastError returns the most recent failure detail, if the last-error
// slot was enabled via WithLastError. ok is false otherwise. Not safe to
// read concurrently with an in-flight request on the same client.
func (c *Client) LastError() (*Error, bool) {
	if !c.lastErrorEnabled {
		return nil, false
	}
	return c.lastError, true
}

// clearLastError resets the last-error slot at the start of every
// request, per the documented lifecycle.
func (c *Client) clearLastError() {
	if c.lastErrorEnabled {
		c.lastError = nil
	}
}

func (c *Client) recordLastError(err *Error) {
	if c.lastErrorEnabled {
		cp := *err
		cp.RawBody = append([]byte(nil), err.RawBody...)
		c.lastError = &cp
	}
}

// buildHeaders merges default headers, the synthesized Authorization
// header, and per-call headers, with later entries overriding earlier
// ones on a case-insensitive name match. Content-Type: application/json
// is always present for POST bodies and cannot be overridden.
func (c *Client) buildHeaders(perCall []headers.Header, isPost bool) ([]headers.Header, error) {
	merged := map[string]headers.Header{}
	order := []string{}

	add := func(h headers.Header) error {
		if err := headers.ValidateHeader(h); err != nil {
			return err
		}
		key := lowerASCII(h.Name)
		if _, exists := merged[key]; !exists {
			order = append(order, key)
		}
		merged[key] = h
		return nil
	}

	for _, h := range c.defaultHeaders {
		if err := add(h); err != nil {
			return nil, err
		}
	}
	if c.authHeader != "" {
		if err := add(headers.Header{Name: "Authorization", Value: c.authHeader}); err != nil {
			return nil, err
		}
	}
	for _, h := range perCall {
		if err := add(h); err != nil {
			return nil, err
		}
	}
	if isPost {
		_ = add(headers.Header{Name: "Content-Type", Value: "application/json"})
	}

	out := make([]headers.Header, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	return out, nil
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
