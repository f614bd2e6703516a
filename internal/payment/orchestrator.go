// Package payment turns line items into a hosted payment link with the
// merchant's fixed checkout settings.
package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"megan-waseller/internal/domain"
)

const (
	AutoReturnApproved         = "approved"
	DefaultStatementDescriptor = "MGF STORE"
)

// Gateway creates checkout preferences, e.g. *mercadopago.Client.
type Gateway interface {
	CreatePreference(ctx context.Context, pref domain.PaymentPreference) (domain.PaymentLink, error)
}

type Config struct {
	Callbacks           domain.CallbackURLs
	NotificationURL     string
	StatementDescriptor string
	Timeout             time.Duration
}

// Orchestrator validates payment requests and forwards them to a Gateway.
// It never retries.
type Orchestrator struct {
	gateway Gateway
	cfg     Config
}

// New returns an Orchestrator. A nil gateway is allowed; every CreateLink then
// fails with ErrorNotConfigured.
func New(gateway Gateway, cfg Config) *Orchestrator {
	if cfg.Callbacks.Pending == "" {
		cfg.Callbacks.Pending = cfg.Callbacks.Success
	}
	if strings.TrimSpace(cfg.StatementDescriptor) == "" {
		cfg.StatementDescriptor = DefaultStatementDescriptor
	}
	cfg.NotificationURL = strings.TrimSpace(cfg.NotificationURL)
	return &Orchestrator{gateway: gateway, cfg: cfg}
}

// configured reports whether a gateway is wired.
func (o *Orchestrator) configured() bool {
	return o != nil && o.gateway != nil
}

// CreateLink creates a payment link for items carrying metadata.
func (o *Orchestrator) CreateLink(ctx context.Context, items []domain.LineItem, metadata map[string]any) (domain.PaymentLink, error) {
	if err := validate(items); err != nil {
		return domain.PaymentLink{}, err
	}
	if !o.configured() {
		return domain.PaymentLink{}, newError(ErrorNotConfigured, "gateway_missing", domain.ErrNotConfigured)
	}
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	pref := domain.PaymentPreference{
		Items:               append([]domain.LineItem(nil), items...),
		CallbackURLs:        o.cfg.Callbacks,
		NotificationURL:     o.cfg.NotificationURL,
		AutoReturn:          AutoReturnApproved,
		StatementDescriptor: o.cfg.StatementDescriptor,
		Metadata:            maps.Clone(metadata),
	}
	link, err := o.gateway.CreatePreference(ctx, pref)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return domain.PaymentLink{}, newError(ErrorNotConfigured, "credentials_missing", err)
		}
		return domain.PaymentLink{}, newError(ErrorGateway, "create_preference_failed", err)
	}
	if strings.TrimSpace(link.URL) == "" {
		return domain.PaymentLink{}, newError(ErrorGateway, "empty_link", nil)
	}
	return link, nil
}

func validate(items []domain.LineItem) error {
	if len(items) == 0 {
		return newError(ErrorInvalidRequest, "no_items", nil)
	}
	for i, it := range items {
		switch {
		case strings.TrimSpace(it.Title) == "":
			return newError(ErrorInvalidRequest, fmt.Sprintf("item_%d_title_empty", i), nil)
		case it.Quantity <= 0:
			return newError(ErrorInvalidRequest, fmt.Sprintf("item_%d_quantity_not_positive", i), nil)
		case it.Quantity > domain.MaxQuantity:
			return newError(ErrorInvalidRequest, fmt.Sprintf("item_%d_quantity_too_large", i), nil)
		case it.UnitPrice < 0:
			return newError(ErrorInvalidRequest, fmt.Sprintf("item_%d_price_negative", i), nil)
		}
	}
	return nil
}
