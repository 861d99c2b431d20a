// Package transport is the HTTP layer shared by the file API and key custodian clients.
// It attaches bearer tokens, replays a request once after a 401, retries idempotent
// requests, and maps error statuses back to the domain error kinds.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// TokenSource supplies access tokens for protected calls.
type TokenSource interface {
	// EnsureFreshAccessToken returns an access token that is not about to expire.
	EnsureFreshAccessToken(ctx context.Context) (string, error)
	// ForceRefresh refreshes after the server rejected the given access token.
	ForceRefresh(ctx context.Context, rejected string) (string, error)
}

// Config holds transport configuration.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Request describes one call. Body is kept in memory so the request can be replayed.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string

	// Authenticated attaches the TokenSource access token.
	Authenticated bool
	// BearerToken is sent as-is when set. It is used for the verification token.
	BearerToken string
}

// Client executes Requests.
type Client struct {
	retrying *retryablehttp.Client
	single   *retryablehttp.Client
	tokens   TokenSource
	logger   *slog.Logger
}

// NewClient creates a transport. Only GET, HEAD and DELETE go through the retrying
// client; everything else is sent exactly once.
func NewClient(cfg Config, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		retrying: newRetryableClient(cfg, cfg.MaxRetries, logger),
		single:   newRetryableClient(cfg, 0, logger),
		tokens:   tokens,
		logger:   logger,
	}
}

// WithTokenSource returns a copy of c using tokens.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func newRetryableClient(cfg Config, maxRetries int, logger *slog.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = maxRetries
	if cfg.RetryWait > 0 {
		client.RetryWaitMin = cfg.RetryWait
		client.RetryWaitMax = 4 * cfg.RetryWait
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil
	if logger != nil {
		client.Logger = logger
	}
	return client
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// Do sends r and returns the response for any 2xx status. Other statuses are returned
// as a *StatusError. The caller closes the response body.
func (c *Client) Do(ctx context.Context, r *Request) (*http.Response, error) {
	token, err := c.bearer(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, r, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && r.Authenticated && c.tokens != nil {
		drain(resp)
		if c.logger != nil {
			c.logger.Debug("access token rejected, refreshing", slog.String("url", r.URL))
		}
		token, err = c.tokens.ForceRefresh(ctx, token)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, r, token)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer drain(resp)
		return nil, decodeStatusError(resp)
	}
	return resp, nil
}

// DoJSON sends r and decodes a JSON response into out. A nil out discards the body.
func (c *Client) DoJSON(ctx context.Context, r *Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	defer drain(resp)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", r.URL, err)
	}
	return nil
}

// DoBytes sends r and returns the whole response body, refusing bodies above limit bytes.
func (c *Client) DoBytes(ctx context.Context, r *Request, limit int64) ([]byte, error) {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", r.URL, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", r.URL, limit)
	}
	return body, nil
}

func (c *Client) bearer(ctx context.Context, r *Request) (string, error) {
	if r.BearerToken != "" {
		return r.BearerToken, nil
	}
	if !r.Authenticated || c.tokens == nil {
		return "", nil
	}
	return c.tokens.EnsureFreshAccessToken(ctx)
}

func (c *Client) send(ctx context.Context, r *Request, token string) (*http.Response, error) {
	var body any
	if r.Body != nil {
		body = r.Body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.single
	if isIdempotent(r.Method) {
		client = c.retrying
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// NewJSONRequest builds a Request with a JSON encoded body.
func NewJSONRequest(method, url string, in any) (*Request, error) {
	r := &Request{Method: method, URL: url}
	if in == nil {
		return r, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	r.Body = body
	r.ContentType = "application/json"
	return r, nil
}

// JoinURL appends path to base with exactly one slash between them.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
