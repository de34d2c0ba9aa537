package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leadctl/leadctl/pkg/metrics"
)

const (
	// DefaultModel is used when the caller does not pick one.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// DefaultMaxTokens bounds the response size for structured outputs.
	DefaultMaxTokens = 400

	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"

	maxRetries     = 3
	retryBaseDelay = 200 * time.Millisecond
)

var (
	// ErrTimeout indicates the call did not finish within the context deadline.
	ErrTimeout = errors.New("model call timed out")
	// ErrAPI indicates the API rejected the call or kept failing after retries.
	ErrAPI = errors.New("model API call failed")
)

// Client is a minimal Anthropic Messages API client.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mostly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// New creates a Client for the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		// No client timeout, callers bound requests via context.
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request is one Messages API call.
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends a user prompt and returns the concatenated text blocks of
// the response. Rate limits and server errors are retried with exponential
// backoff; the context bounds the whole exchange including retries.
func (c *Client) Complete(ctx context.Context, req *Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: request required", ErrAPI)
	}
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: API key not set", ErrAPI)
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}
	if req.MaxTokens < 1 {
		req.MaxTokens = DefaultMaxTokens
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrAPI, err)
	}

	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := retryBaseDelay * time.Duration(1<<(attempt-1))
			slog.Debug("retrying model call", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				metrics.RecordModelCall(req.Model, "timeout", time.Since(start))
				return "", ErrTimeout
			}
		}

		text, retryable, callErr := c.do(ctx, body)
		if callErr == nil {
			metrics.RecordModelCall(req.Model, "success", time.Since(start))
			return text, nil
		}
		if ctx.Err() != nil {
			metrics.RecordModelCall(req.Model, "timeout", time.Since(start))
			return "", ErrTimeout
		}
		lastErr = callErr
		if !retryable {
			break
		}
	}

	metrics.RecordModelCall(req.Model, "error", time.Since(start))
	if errors.Is(lastErr, ErrAPI) {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %v", ErrAPI, lastErr)
}

// do performs a single attempt. The request is rebuilt every time since the
// body reader cannot be replayed across attempts.
func (c *Client) do(ctx context.Context, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retry, fmt.Errorf("%w: %s", ErrAPI, apiErrorMessage(resp.StatusCode, b))
	}

	var mr messagesResponse
	if err := json.Unmarshal(b, &mr); err != nil {
		return "", false, fmt.Errorf("%w: decode response: %v", ErrAPI, err)
	}

	var sb strings.Builder
	for _, block := range mr.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", false, fmt.Errorf("%w: response contained no text", ErrAPI)
	}

	return sb.String(), false, nil
}

func apiErrorMessage(status int, body []byte) string {
	var er struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil {
		return fmt.Sprintf("status %d (%s): %s", status, er.Error.Type, er.Error.Message)
	}
	return "status " + strconv.Itoa(status)
}
