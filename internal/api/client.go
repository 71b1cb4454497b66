// Package api is the remote file gateway: a thin client for the dashboard's
// file and folder endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/http"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/ratelimit"
	"github.com/filedash/filedash/internal/version"
)

// retryLogger implements retryablehttp.LeveledLogger on top of zerolog.
type retryLogger struct {
	logger zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Client is the dashboard API client. GET requests go through a retrying
// client; mutations are sent once.
type Client struct {
	httpClient  *nethttp.Client
	retryClient *retryablehttp.Client
	baseURL     string
	token       string
	limiter     *ratelimit.RateLimiter
	calls       atomic.Int64
	log         zerolog.Logger
}

// NewClient creates a client for cfg.APIBaseURL authenticated with token.
func NewClient(cfg *config.Config, token string) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty; set api_url in the config file or FILEDASH_API_URL")
	}

	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	logger := log.With().Str("component", "api").Logger()
	retryClient.Logger = &retryLogger{logger: logger}
	// Keep the last response once retries are exhausted so the status reaches FetchError.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient:  httpClient,
		retryClient: retryClient,
		baseURL:     strings.TrimSuffix(cfg.APIBaseURL, "/"),
		token:       token,
		limiter:     ratelimit.NewGatewayLimiter(cfg.RateLimit),
		log:         logger,
	}, nil
}

// SetLogger sends the client's logging, retries included, to l.
func (c *Client) SetLogger(l *logging.Logger) {
	c.log = l.Component("api").Zerolog()
	c.retryClient.Logger = &retryLogger{logger: c.log}
}

// BaseURL returns the API root requests are made against.
func (c *Client) BaseURL() string { return c.baseURL }

// Calls returns the number of requests issued so far.
func (c *Client) Calls() int64 { return c.calls.Load() }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "filedash/"+version.Version)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// do sends req after waiting on the rate limiter. GETs are retried.
func (c *Client) do(req *nethttp.Request) (*nethttp.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.calls.Add(1)

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Msg("api request")

	if req.Method == nethttp.MethodGet {
		rreq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return c.retryClient.Do(rreq)
	}
	return c.httpClient.Do(req)
}

// doJSON performs a request with an optional JSON body and decodes a JSON
// response into out. Any failure is returned as a *FetchError tagged with op.
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &FetchError{Op: op, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	return c.send(op, req, out)
}

func (c *Client) send(op string, req *nethttp.Request, out interface{}) error {
	resp, err := c.do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("api call failed")
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == nethttp.StatusTooManyRequests {
			c.log.Warn().Str("op", op).Str("retry_after", resp.Header.Get("Retry-After")).Msg("throttled by server")
		}
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: errorFromBody(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// errorFromBody extracts {"error": ...} or {"message": ...} when present.
func errorFromBody(r io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return fmt.Errorf("%s", payload.Error)
		}
		if payload.Message != "" {
			return fmt.Errorf("%s", payload.Message)
		}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = "empty response body"
	}
	return fmt.Errorf("%s", msg)
}
