// Package jira provides a client for the Jira Cloud REST API.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/mailticket/internal/common"
	"github.com/ternarybob/mailticket/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client is a Jira REST API client using basic auth with an API token.
type Client struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Zero or less disables limiting.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient creates a new Jira client for the site at baseURL.
func NewClient(baseURL, email, apiToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  common.NormalizeBaseURL(baseURL),
		email:    email,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a client from the [jira] config section.
func NewClientFromConfig(cfg common.JiraConfig, logger arbor.ILogger) *Client {
	return NewClient(cfg.BaseURL, cfg.Email, cfg.APIToken,
		WithTimeout(cfg.Timeout.Duration),
		WithRateLimit(cfg.RateLimit),
		WithLogger(logger),
	)
}

// BaseURL returns the normalized site URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BrowseURL returns the web URL of an issue.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}

func (c *Client) authHeader() string {
	token := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.apiToken))
	return "Basic " + token
}

// do performs a request and decodes a 2xx JSON answer into result.
func (c *Client) do(ctx context.Context, op Operation, method, path string, params url.Values, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.authHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", c.baseURL+path).
			Msg("Jira API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		apiErr := newAPIError(op, resp, path, data)
		if c.logger != nil {
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("endpoint", path).
				Str("message", apiErr.Message).
				Msg("Jira API error")
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// detailMessage joins errorMessages, falling back to the errors map or the raw body
func detailMessage(data []byte) string {
	var parsed models.JiraErrorResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return strings.TrimSpace(string(data))
	}
	if len(parsed.ErrorMessages) > 0 {
		return strings.Join(parsed.ErrorMessages, ", ")
	}
	if len(parsed.Errors) > 0 {
		encoded, _ := json.Marshal(parsed.Errors)
		return string(encoded)
	}
	return strings.TrimSpace(string(data))
}
