// Package freight computes shipping quotes from a CEP and a parcel weight.
package freight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/logging"
)

// Mode selects the quoting strategy.
type Mode string

const (
	ModeTable    Mode = "table"
	ModeExternal Mode = "external"
)

// Default package dimensions sent to the external provider, in centimetres.
const (
	DefaultWidthCm  = 15
	DefaultHeightCm = 6
	DefaultLengthCm = 20
)

// DefaultQuote is returned when the rate table cannot be used at all.
var DefaultQuote = domain.FreightQuote{Price: domain.MoneyFromFloat(39.9), LeadTimeDays: "3-7"}

// ParseMode accepts the configured selector, including the legacy
// "tabela" and "bling" spellings. Unknown values select ModeTable.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "external", "bling":
		return ModeExternal
	default:
		return ModeTable
	}
}

// Request is the parcel description sent to an external provider.
type Request struct {
	PostalCode string
	WeightKg   float64
	WidthCm    float64
	HeightCm   float64
	LengthCm   float64
}

// Provider quotes freight through a third-party service.
type Provider interface {
	Quote(ctx context.Context, req Request) (domain.FreightQuote, error)
}

// Engine never fails: every error path degrades to the table or DefaultQuote.
type Engine struct {
	mode          Mode
	table         Table
	tableErr      error
	provider      Provider
	defaultRegion Region
	timeout       time.Duration
}

type Option func(*Engine)

func WithProvider(p Provider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithDefaultRegion sets the region used when the CEP is absent.
func WithDefaultRegion(r Region) Option {
	return func(e *Engine) {
		if r != "" {
			e.defaultRegion = r
		}
	}
}

// WithTimeout bounds each external provider call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// NewEngine parses rawTable once. A malformed table is not an error here; the
// engine answers DefaultQuote for table lookups instead.
func NewEngine(mode Mode, rawTable string, opts ...Option) *Engine {
	table, err := ParseTable(rawTable)
	e := &Engine{
		mode:          mode,
		table:         table,
		tableErr:      err,
		defaultRegion: RegionSC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TableErr reports the rate table parse error, if any.
func (e *Engine) TableErr() error {
	return e.tableErr
}

// Quote prices a parcel of weightKg to postalCode.
func (e *Engine) Quote(ctx context.Context, postalCode string, weightKg float64) domain.FreightQuote {
	if weightKg <= 0 {
		weightKg = 1
	}
	if e.mode == ModeExternal {
		q, err := e.quoteExternal(ctx, postalCode, weightKg)
		if err == nil {
			return q
		}
		logging.FromContext(ctx).Warn("external freight failed, using table",
			"outcome", "freight_fallback_table", "cep", postalCode, "err", err)
	}
	return e.quoteTable(ctx, postalCode, weightKg)
}

func (e *Engine) quoteTable(ctx context.Context, postalCode string, weightKg float64) domain.FreightQuote {
	if e.tableErr != nil {
		logging.FromContext(ctx).Warn("freight table unusable, using default quote",
			"outcome", "freight_default_quote", "err", e.tableErr)
		return DefaultQuote
	}
	region := e.defaultRegion
	if postalCode != "" {
		region = ResolveRegion(postalCode)
	}
	return e.table.Quote(region, weightKg)
}

func (e *Engine) quoteExternal(ctx context.Context, postalCode string, weightKg float64) (domain.FreightQuote, error) {
	if e.provider == nil {
		return domain.FreightQuote{}, fmt.Errorf("freight: external provider: %w", domain.ErrNotConfigured)
	}
	if postalCode == "" {
		return domain.FreightQuote{}, errors.New("freight: external provider requires a postal code")
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	q, err := e.provider.Quote(ctx, Request{
		PostalCode: postalCode,
		WeightKg:   weightKg,
		WidthCm:    DefaultWidthCm,
		HeightCm:   DefaultHeightCm,
		LengthCm:   DefaultLengthCm,
	})
	if err != nil {
		return domain.FreightQuote{}, err
	}
	if q.Price < 0 {
		return domain.FreightQuote{}, fmt.Errorf("freight: provider returned negative price %d", q.Price)
	}
	if strings.TrimSpace(q.LeadTimeDays) == "" {
		return domain.FreightQuote{}, errors.New("freight: provider returned empty lead time")
	}
	return q, nil
}
