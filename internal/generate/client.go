// Package generate calls an OpenAI-compatible chat-completion endpoint to
// turn invitation emails into event records.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/logging"
)

const (
	DefaultBaseURL     = "https://api.deepseek.com/v1"
	DefaultModel       = "deepseek-chat"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7

	completionsPath = "/chat/completions"
)

// ErrNoChoices is returned when the endpoint answers 2xx with no choices.
var ErrNoChoices = errors.New("completion response has no choices")

// CallError reports a failed completion request: either the transport
// failed (Err set) or the endpoint answered with a non-2xx status.
type CallError struct {
	StatusCode int

	// Body is the raw response body; Message is error.message from it,
	// when the body is a JSON error object.
	Body    string
	Message string

	Err error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calling completion API: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

func (e *CallError) Unwrap() error { return e.Err }

// IsCallError reports whether err is or wraps a *CallError.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client sends single-turn prompts to the completion endpoint.
type Client struct {
	apiKey      string
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// New creates a completion client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := opts.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		apiKey:      opts.APIKey,
		endpoint:    baseURL + completionsPath,
		model:       modelName,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
		client:      httpClient,
		logger:      logging.OrNop(opts.Logger),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the content
// of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("sending completion request",
		zap.String("endpoint", c.endpoint),
		zap.String("model", c.model),
		zap.Int("prompt_bytes", len(prompt)),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &CallError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		callErr := &CallError{StatusCode: resp.StatusCode, Body: string(respBody)}
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil {
			callErr.Message = apiErr.Error.Message
		}
		return "", callErr
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := result.Choices[0].Message.Content
	c.logger.Debug("completion received", zap.Int("response_bytes", len(content)))
	return content, nil
}
