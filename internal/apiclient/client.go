// Package apiclient sends JSON requests to the backend, attaching the session token uniformly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

// TokenSource reports the current session token, if any.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool, err error)
}

// Client is a generic JSON request sender.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
	log    *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the transport timeout for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTokenSource sets where the bearer token is read from before each request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New constructs a Client for baseURL (scheme and host required).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api base url %q: need http(s)://host", baseURL)
	}
	c := &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{Timeout: 30 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// RequestOption adjusts an outgoing request before the auth transform runs.
type RequestOption func(*http.Request)

// WithHeader sets an extra header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Authorize is the transform applied to every outgoing request. It returns a copy of req
// with JSON content headers and, iff present is true, the bearer token.
func Authorize(req *http.Request, token string, present bool) *http.Request {
	out := req.Clone(req.Context())
	out.Header.Set("Content-Type", "application/json")
	out.Header.Set("Accept", "application/json")
	if present {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	return out
}

// Send issues method path with body encoded as JSON (nil for no body).
// Failures are returned as *RequestError; nothing is retried.
func (c *Client) Send(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Kind: KindEncode, Method: method, Path: path, Err: err}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/"+strings.TrimLeft(path, "/"), rdr)
	if err != nil {
		return nil, &RequestError{Kind: KindEncode, Method: method, Path: path, Err: err}
	}
	for _, opt := range opts {
		opt(req)
	}

	var (
		token   string
		present bool
	)
	if c.tokens != nil {
		token, present, err = c.tokens.Token(ctx)
		if err != nil {
			return nil, &RequestError{Kind: KindSession, Method: method, Path: path, Err: err}
		}
	}
	req = Authorize(req, token, present)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api",
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return nil, &RequestError{Kind: KindNetwork, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}

	// metadata only: bodies and tokens stay out of logs
	c.log.Info("api",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Bool("auth", present),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{Kind: KindStatus, Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
