package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/integrations/httpjson"
)

// Fixed completion settings for the sales assistant.
const (
	DefaultModel       = "gpt-5.1-mini"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 250
)

// chatRequest is the minimal request shape for the Chat Completions endpoint.
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []domain.Utterance `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

// chatResponse is the minimal response shape returned by the Chat Completions endpoint.
type chatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Choices []struct {
		Index   int              `json:"index"`
		Message domain.Utterance `json:"message"`
	} `json:"choices"`
}

// TokenSource supplies the API key, e.g. a *paramstore.Secret.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPStatusError is returned for non-2xx upstream responses.
type HTTPStatusError = httpjson.HTTPStatusError

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	token       TokenSource
	model       string
	temperature float64
	maxTokens   int
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModel overrides DefaultModel. Blank values are ignored.
func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

// NewClient creates a new Client whose API key is resolved through token on
// every call; the source is expected to cache it.
func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("openai: token source must not be nil")
	}
	c := &Client{
		baseURL:     "https://api.openai.com/v1",
		httpClient:  &http.Client{Timeout: httpjson.DefaultTimeout},
		token:       token,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends the transcript and returns the trimmed assistant reply.
// An empty reply is an error.
func (c *Client) Complete(ctx context.Context, transcript domain.Transcript) (string, error) {
	if len(transcript) == 0 {
		return "", errors.New("openai: transcript must not be empty")
	}
	apiKey, err := c.token.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}

	req, err := httpjson.NewRequest(ctx, http.MethodPost, chatURL(c.baseURL), apiKey, chatRequest{
		Model:       c.model,
		Messages:    transcript,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	raw, err := httpjson.Do(c.httpClient, req)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decErr)
	}
	if len(payload.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	reply := strings.TrimSpace(payload.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("openai: empty reply")
	}
	return reply, nil
}
