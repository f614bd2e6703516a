// Package whatsapp talks to the WhatsApp Cloud API: outbound text messages,
// webhook verification and inbound payload decoding.
package whatsapp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/integrations/httpjson"
	"megan-waseller/internal/logging"
)

const (
	defaultBaseURL     = "https://graph.facebook.com/v20.0"
	DefaultVerifyToken = "verify_token_demo"
	subscribeMode      = "subscribe"
)

// TokenSource supplies the Cloud API access token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// Client sends text messages from one business phone number.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	token       TokenSource
	phoneID     string
	verifyToken string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVerifyToken sets the webhook handshake secret. Blank keeps the default.
func WithVerifyToken(token string) Option {
	return func(c *Client) {
		if t := strings.TrimSpace(token); t != "" {
			c.verifyToken = t
		}
	}
}

// NewClient returns a Client for phoneID. A nil token source or an empty
// phoneID is allowed; sends are then only logged.
func NewClient(token TokenSource, phoneID string, opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: httpjson.DefaultTimeout},
		token:       token,
		phoneID:     strings.TrimSpace(phoneID),
		verifyToken: DefaultVerifyToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers body to the recipient address to. When credentials are not
// configured the message is logged as a simulated send and nil is returned.
func (c *Client) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("whatsapp: recipient is required")
	}
	token, err := c.resolveToken(ctx)
	if errors.Is(err, domain.ErrNotConfigured) {
		logging.FromContext(ctx).Warn("whatsapp credentials not configured, simulating send",
			"to", to, "body", body)
		return nil
	}
	if err != nil {
		return fmt.Errorf("whatsapp: resolve token: %w", err)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(c.phoneID) + "/messages"
	req, err := httpjson.NewRequest(ctx, http.MethodPost, endpoint, token, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	if _, err := httpjson.Do(c.httpClient, req); err != nil {
		return fmt.Errorf("whatsapp: send message: %w", err)
	}
	return nil
}

func (c *Client) resolveToken(ctx context.Context) (string, error) {
	if c.phoneID == "" || c.token == nil {
		return "", domain.ErrNotConfigured
	}
	tok, err := c.token.Token(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(tok) == "" {
		return "", domain.ErrNotConfigured
	}
	return tok, nil
}

// VerifyHandshake answers the Cloud API subscription check. It returns the
// challenge and true when mode is "subscribe" and token matches.
func (c *Client) VerifyHandshake(mode, token, challenge string) (string, bool) {
	if mode != subscribeMode {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.verifyToken)) != 1 {
		return "", false
	}
	return challenge, true
}
