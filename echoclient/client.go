// Package echoclient calls the NebulaBridge echo API.
package echoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/nebula-bridge/echo"
)

const apiSegment = "/api"

var stageSuffixes = []string{"/prod", "/prod/", "/dev", "/dev/"}

// Client is the echo API client. It does not serialise calls; callers that
// need a single request in flight guard it themselves.
type Client struct {
	url        string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		url: ResolveURL(baseURL),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ResolveURL returns the endpoint for a configured base. A base that already
// names the API (contains "/api") or a deployment stage is used unmodified,
// anything else gets "/api" appended.
func ResolveURL(base string) string {
	if strings.Contains(base, apiSegment) {
		return base
	}
	for _, suffix := range stageSuffixes {
		if strings.HasSuffix(base, suffix) {
			return base
		}
	}
	return strings.TrimSuffix(base, "/") + apiSegment
}

// URL is the resolved endpoint.
func (c *Client) URL() string {
	return c.url
}

// FetchMessage GETs the greeting. An empty token sends no Authorization header.
func (c *Client) FetchMessage(ctx context.Context, token string) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodGet, nil, token)
	if err != nil {
		return "", fmt.Errorf("echoclient.FetchMessage: %w", err)
	}
	return msg, nil
}

// SendText POSTs text and returns the echoed message.
func (c *Client) SendText(ctx context.Context, text, token string) (string, error) {
	msg, err := c.doRequest(ctx, http.MethodPost, &echo.Request{Text: text}, token)
	if err != nil {
		return "", fmt.Errorf("echoclient.SendText: %w", err)
	}
	return msg, nil
}

func (c *Client) doRequest(ctx context.Context, method string, body any, token string) (string, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url, reqBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	var out echo.Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Message, nil
}
