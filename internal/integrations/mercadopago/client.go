// Package mercadopago creates checkout preferences through the Mercado Pago
// SDK.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/integrations/httpjson"
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is a focused Mercado Pago client for checkout preferences. The access
// token is resolved on every call so a rotated secret is picked up by the
// cached Secret without restarting.
type Client struct {
	httpClient *http.Client
	token      TokenSource
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("mercadopago: token source must not be nil")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: httpjson.DefaultTimeout},
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreatePreference registers pref and returns its hosted checkout link.
// Missing credentials yield an error wrapping domain.ErrNotConfigured.
func (c *Client) CreatePreference(ctx context.Context, pref domain.PaymentPreference) (domain.PaymentLink, error) {
	accessToken, err := c.token.Token(ctx)
	if err != nil {
		return domain.PaymentLink{}, fmt.Errorf("mercadopago: resolve access token: %w", err)
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return domain.PaymentLink{}, fmt.Errorf("mercadopago: access token: %w", domain.ErrNotConfigured)
	}

	cfg, err := config.New(accessToken, config.WithHTTPClient(c.httpClient))
	if err != nil {
		return domain.PaymentLink{}, fmt.Errorf("mercadopago: sdk config: %w", err)
	}
	res, err := preference.NewClient(cfg).Create(ctx, toRequest(pref))
	if err != nil {
		return domain.PaymentLink{}, fmt.Errorf("mercadopago: create preference: %w", err)
	}
	if res == nil || res.ID == "" || res.InitPoint == "" {
		return domain.PaymentLink{}, errors.New("mercadopago: response missing id or init_point")
	}
	return domain.PaymentLink{ID: res.ID, URL: res.InitPoint}, nil
}

func toRequest(pref domain.PaymentPreference) preference.Request {
	items := make([]preference.ItemRequest, 0, len(pref.Items))
	for _, li := range pref.Items {
		currency := li.Currency
		if currency == "" {
			currency = domain.CurrencyBRL
		}
		items = append(items, preference.ItemRequest{
			Title:      li.Title,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice.Float(),
			CurrencyID: currency,
		})
	}
	return preference.Request{
		Items: items,
		BackURLs: &preference.BackURLsRequest{
			Success: pref.CallbackURLs.Success,
			Failure: pref.CallbackURLs.Failure,
			Pending: pref.CallbackURLs.Pending,
		},
		AutoReturn:          pref.AutoReturn,
		NotificationURL:     pref.NotificationURL,
		StatementDescriptor: pref.StatementDescriptor,
		Metadata:            pref.Metadata,
	}
}
