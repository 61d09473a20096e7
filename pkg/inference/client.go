// Package inference implements a client for Ollama-compatible /api/generate
// endpoints. Requests are single-shot and non-streaming.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the default Ollama generate URL.
	DefaultEndpoint = "http://localhost:11434/api/generate"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "dolphin-llama3:latest"

	// DefaultTimeout bounds a single generate request.
	DefaultTimeout = 120 * time.Second

	// NoResponseText is the answer used when a successful reply carries no
	// "response" field.
	NoResponseText = "No response from model."

	// maxErrorBody caps how much of a failed response body is kept.
	maxErrorBody = 512
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the inference client.
type Config struct {
	// Endpoint is the full generate URL. Defaults to DefaultEndpoint if empty.
	Endpoint string

	// Model is sent verbatim in every request. Defaults to DefaultModel if empty.
	Model string

	// Timeout for the whole request. Defaults to DefaultTimeout if zero.
	Timeout time.Duration

	// Headers are static headers added to every request.
	Headers map[string]string

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client wraps an Ollama-compatible generate API.
type Client struct {
	endpoint   string
	model      string
	headers    map[string]string
	httpClient *http.Client
}

// generateRequest is the request body for the generate API.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse is the subset of the generate response parley reads.
// Response is a pointer so a missing field is distinguishable from "".
type generateResponse struct {
	Response *string `json:"response"`
}

// NewClient creates a new generate client.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint:   endpoint,
		model:      model,
		headers:    cfg.Headers,
		httpClient: httpClient,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the configured generate URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate sends one non-streaming generate request and returns the
// "response" field of the reply, or NoResponseText when it is absent.
// All failures are returned as *Error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &Error{Kind: KindStatus, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}

	if genResp.Response == nil {
		return NoResponseText, nil
	}

	return *genResp.Response, nil
}

// Ensure Client implements Generator
var _ Generator = (*Client)(nil)
