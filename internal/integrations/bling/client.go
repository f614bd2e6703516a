// Package bling quotes shipping through the Bling ERP API.
package bling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/freight"
	"megan-waseller/internal/integrations/httpjson"
)

const defaultBaseURL = "https://www.bling.com.br/Api/v3"

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type quoteResponse struct {
	Price *float64 `json:"price"`
	Prazo string   `json:"prazo"`
}

// Client implements freight.Provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if b := strings.TrimRight(strings.TrimSpace(baseURL), "/"); b != "" {
			c.baseURL = b
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("bling: token source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: httpjson.DefaultTimeout},
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ freight.Provider = (*Client)(nil)

// Quote asks Bling for the price and lead time of one parcel.
func (c *Client) Quote(ctx context.Context, r freight.Request) (domain.FreightQuote, error) {
	apiKey, err := c.token.Token(ctx)
	if err != nil {
		return domain.FreightQuote{}, fmt.Errorf("bling: resolve api key: %w", err)
	}

	q := url.Values{}
	q.Set("cep", r.PostalCode)
	q.Set("weight", formatFloat(r.WeightKg))
	q.Set("width", formatFloat(r.WidthCm))
	q.Set("height", formatFloat(r.HeightCm))
	q.Set("length", formatFloat(r.LengthCm))

	req, err := httpjson.NewRequest(ctx, http.MethodGet, c.baseURL+"/shipping/quote?"+q.Encode(), apiKey, nil)
	if err != nil {
		return domain.FreightQuote{}, fmt.Errorf("bling: %w", err)
	}
	raw, err := httpjson.Do(c.httpClient, req)
	if err != nil {
		return domain.FreightQuote{}, fmt.Errorf("bling: quote request: %w", err)
	}

	var res quoteResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return domain.FreightQuote{}, fmt.Errorf("bling: decode response: %w", err)
	}
	if res.Price == nil {
		return domain.FreightQuote{}, errors.New("bling: response missing price")
	}
	return domain.FreightQuote{
		Price:        domain.MoneyFromFloat(*res.Price),
		LeadTimeDays: strings.TrimSpace(res.Prazo),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
