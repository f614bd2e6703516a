package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"megan-waseller/internal/domain"
)

func TestStatic_SingleEntryMatchesEverything(t *testing.T) {
	c := NewStatic(DefaultUnitPrice, 1)
	for _, d := range []string{"kit alicate", "oi", ""} {
		p, ok := c.Lookup(context.Background(), d)
		require.True(t, ok)
		require.Equal(t, domain.Money(39700), p.UnitPrice)
		require.Equal(t, domain.CurrencyBRL, p.Currency)
	}
}

func TestStatic_KeywordEntries(t *testing.T) {
	c := NewStatic(DefaultUnitPrice, 1,
		Entry{Keyword: " Gaxeta ", Product: Product{SKU: "gaxeta", UnitPrice: 12000, UnitWeightKg: 0.5}},
		Entry{Keyword: "", Product: Product{SKU: "ignored"}},
	)
	p, ok := c.Lookup(context.Background(), "kit GAXETA inox")
	require.True(t, ok)
	require.Equal(t, "gaxeta", p.SKU)
	require.Equal(t, domain.CurrencyBRL, p.Currency)

	p, _ = c.Lookup(context.Background(), "kit alicate")
	require.Equal(t, "default", p.SKU)
}

func TestProduct_WeightFor(t *testing.T) {
	require.Equal(t, 2.0, Product{UnitWeightKg: 1}.WeightFor(2))
	require.Equal(t, 3.0, Product{}.WeightFor(3))
	require.Equal(t, 0.5, Product{UnitWeightKg: 0.5}.WeightFor(0))
}
