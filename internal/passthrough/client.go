package passthrough

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client forwards sanitized Anthropic bodies to the zai passthrough
// provider and streams its response back unchanged except for the SSE
// normalization of NormalizeStream.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewClient builds a passthrough client with the given request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  NormalizeAuthHeader(apiKey),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Forward sends a sanitized body to path (e.g. "/v1/messages") and returns
// the upstream response for the caller to stream or buffer. The gateway's
// own Authorization/x-api-key headers are never copied onto this request;
// only the upstream token is injected, on both header forms (§4.5).
func (c *Client) Forward(ctx context.Context, path string, body io.Reader, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building passthrough request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("x-api-key", c.APIKey)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("passthrough upstream request: %w", err)
	}
	return resp, nil
}
