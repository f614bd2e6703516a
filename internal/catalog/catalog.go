// Package catalog resolves a parsed product description to a priced item.
package catalog

import (
	"context"
	"strings"

	"megan-waseller/internal/domain"
)

// DefaultUnitPrice is the base price of the flagship kit.
var DefaultUnitPrice = domain.MoneyFromFloat(397.0)

// Product is a sellable catalog entry.
type Product struct {
	SKU          string
	UnitPrice    domain.Money
	UnitWeightKg float64
	Currency     string
}

// WeightFor returns the parcel weight of qty units, counting unknown unit
// weights as 1 kg.
func (p Product) WeightFor(qty int) float64 {
	w := p.UnitWeightKg
	if w <= 0 {
		w = 1
	}
	if qty < 1 {
		qty = 1
	}
	return float64(qty) * w
}

// Entry is matched when its keyword occurs in the product description.
type Entry struct {
	Keyword string
	Product Product
}

// Static is an in-memory catalog. Descriptions that match no entry resolve to
// the fallback product, so lookups always succeed.
type Static struct {
	fallback Product
	entries  []Entry
}

// NewStatic builds a catalog whose fallback carries unitPrice and unitWeightKg.
func NewStatic(unitPrice domain.Money, unitWeightKg float64, entries ...Entry) *Static {
	fallback := Product{
		SKU:          "default",
		UnitPrice:    unitPrice,
		UnitWeightKg: unitWeightKg,
		Currency:     domain.CurrencyBRL,
	}
	normalized := make([]Entry, 0, len(entries))
	for _, e := range entries {
		kw := strings.ToLower(strings.TrimSpace(e.Keyword))
		if kw == "" {
			continue
		}
		if e.Product.Currency == "" {
			e.Product.Currency = domain.CurrencyBRL
		}
		normalized = append(normalized, Entry{Keyword: kw, Product: e.Product})
	}
	return &Static{fallback: fallback, entries: normalized}
}

// Lookup returns the first entry whose keyword appears in description.
func (s *Static) Lookup(_ context.Context, description string) (Product, bool) {
	d := strings.ToLower(description)
	for _, e := range s.entries {
		if strings.Contains(d, e.Keyword) {
			return e.Product, true
		}
	}
	return s.fallback, true
}
