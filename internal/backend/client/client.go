// Package client talks to the boardkit backend REST API. Each call carries
// the session bearer token, is traced, and is bounded by a request timeout.
// Nothing is retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/boardkit/internal/platform/errors"
	"github.com/louisbranch/boardkit/internal/platform/session"
	"github.com/louisbranch/boardkit/internal/platform/timeouts"
)

const tracerName = "github.com/louisbranch/boardkit/internal/backend/client"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client is the shared HTTP plumbing for every resource.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	sessions *session.Holder
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// New returns a client for the backend at baseURL. Tokens come from the
// session in the request context, falling back to sessions.
func New(baseURL string, sessions *session.Holder, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url must be http or https, got %q", baseURL)
	}
	c := &Client{
		baseURL:  parsed,
		http:     &http.Client{},
		sessions: sessions,
		timeout:  timeouts.BackendRequest,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sessions == nil {
		c.sessions = session.NewHolder(session.Session{})
	}
	return c, nil
}

// Sessions returns the holder the client reads tokens from.
func (c *Client) Sessions() *session.Holder {
	return c.sessions
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends one request. body is JSON-encoded when non-nil and out receives
// the decoded response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any, authenticated bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+routeOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	err := c.roundTrip(ctx, span, method, path, query, body, out, authenticated)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, method, path string, query url.Values, body any, out any, authenticated bool) error {
	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.KindInvalidInput, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token := c.token(ctx)
		if token == "" {
			return apperrors.EK(apperrors.KindUnauthorized, "notice.unauthorized", "not logged in")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Wrap(apperrors.KindUnavailable, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrap(apperrors.KindUnknown, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) token(ctx context.Context) string {
	if s, ok := session.FromContext(ctx); ok && strings.TrimSpace(s.Token) != "" {
		return s.Token
	}
	if s, ok := c.sessions.Current(); ok {
		return s.Token
	}
	return ""
}

// statusError keeps the server message verbatim so the notice can show it.
func statusError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)
	message := strings.TrimSpace(body.Error)
	kind := apperrors.FromHTTPStatus(status)
	if message == "" {
		return &apperrors.Error{Kind: kind, Cause: fmt.Errorf("backend returned %d", status)}
	}
	return &apperrors.Error{Kind: kind, Message: message}
}

// routeOf collapses record identifiers so span names stay low-cardinality.
func routeOf(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 {
		parts[2] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}
