// Package rpc is the client for the order service's command surface.
//
// Every command is a POST to <base>/rpc/<command> with a JSON object of named
// arguments. The service replies with {"result": ...} on success or
// {"error": "..."} with a non-2xx status on failure.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultURL is the service address used when none is configured.
const DefaultURL = "http://127.0.0.1:8787"

// DefaultTimeout bounds a single command.
const DefaultTimeout = 10 * time.Second

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

const maxResponseBytes = 8 << 20

// Client calls the order service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	tracer  trace.Tracer
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTracer sets the tracer used for client spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger sets the logger for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("ordertrack/rpc"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.baseURL }

type responseEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Call sends command with args and decodes the result into out.
// out may be nil when the result is ignored.
func (c *Client) Call(ctx context.Context, command string, args, out interface{}) error {
	raw, err := c.call(ctx, command, args)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Command: command, Kind: KindDecode, Err: err}
	}
	return nil
}

func (c *Client) call(ctx context.Context, command string, args interface{}) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "rpc "+command,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.command", command),
			attribute.String("rpc.request_id", requestID),
		),
	)
	defer span.End()

	raw, err := c.do(ctx, command, requestID, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("rpc call failed", "command", command, "request_id", requestID, "error", err)
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, command, requestID string, args interface{}) (json.RawMessage, error) {
	if args == nil {
		args = NoArgs{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, &Error{Command: command, Kind: KindTransport, Err: fmt.Errorf("encode args: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+command, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Command: command, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, command, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(ctx, command, err)
	}

	var env responseEnvelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Error != nil {
			return nil, &Error{Command: command, Kind: KindApplication, Status: resp.StatusCode, Message: *env.Error}
		}
		return nil, &Error{
			Command: command,
			Kind:    KindTransport,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	if decodeErr != nil {
		return nil, &Error{Command: command, Kind: KindDecode, Status: resp.StatusCode, Err: decodeErr}
	}
	if env.Error != nil {
		return nil, &Error{Command: command, Kind: KindApplication, Status: resp.StatusCode, Message: *env.Error}
	}
	return env.Result, nil
}

func transportError(ctx context.Context, command string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Command: command, Kind: KindTimeout, Err: err}
	}
	return &Error{Command: command, Kind: KindTransport, Err: err}
}

// Ping checks the service health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", c.baseURL, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}
