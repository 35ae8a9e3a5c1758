// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"
)

// Response represents an HTTP response from the API.
type Response struct {
	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	StatusCode int

	// Body contains the raw response body bytes.
	Body []byte

	// Headers contains the response headers.
	Headers http.Header
}

// JSON unmarshals the response body into the provided value.
//
//	var decision models.Decision
//	if err := resp.JSON(&decision); err != nil {
//	    return err
//	}
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.Body)
}

// APIClient sends JSON requests to the dashboard API.
//
// Headers set on the client (API key, acting user) are sent with every
// request. Use WithHeaders to derive a client that acts as someone else
// without touching the shared one.
type APIClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// NewAPIClient creates a new API client with the given base URL.
//
// The base URL should include the scheme and host (e.g., "http://localhost:8080").
// Do not include a trailing slash.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		headers: make(map[string]string),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHeader sets a header that will be included in all subsequent requests.
//
//	client.SetHeader("x-api-key", "test-api-key")
//	client.SetHeader("x-user-id", "manager@example.com")
func (c *APIClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// WithHeaders returns a copy of the client with the given headers applied.
// An empty value removes the header, which is how tests call protected
// routes without an API key.
//
//	anon := api.WithHeaders(map[string]string{"x-api-key": ""})
func (c *APIClient) WithHeaders(headers map[string]string) *APIClient {
	clone := &APIClient{
		baseURL: c.baseURL,
		headers: maps.Clone(c.headers),
		client:  c.client,
	}
	for k, v := range headers {
		if v == "" {
			delete(clone.headers, k)
			continue
		}
		clone.headers[k] = v
	}
	return clone
}

// Call makes an HTTP request and returns the response.
//
// The body parameter is JSON-encoded and sent as the request body (can be nil).
//
//	resp, err := api.Call("GET", "/api/decisions?status=pending", nil)
//
//	resp, err := api.Call("POST", "/api/decisions/"+id+"/approve", map[string]any{
//	    "optionId": "approve",
//	})
//
// HTTP error status codes (4xx, 5xx) are NOT treated as errors - check
// resp.StatusCode instead.
func (c *APIClient) Call(method, path string, body any) (*Response, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}
