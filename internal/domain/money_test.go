package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoneyFromFloat_RoundsToCents(t *testing.T) {
	require.Equal(t, Money(3990), MoneyFromFloat(39.9))
	require.Equal(t, Money(2990), MoneyFromFloat(29.899))
	require.Equal(t, Money(39700), MoneyFromFloat(397))
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{3990, "R$ 39,90"},
		{39700, "R$ 397,00"},
		{123456, "R$ 1.234,56"},
		{123456789, "R$ 1.234.567,89"},
		{-3990, "-R$ 39,90"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.in.String(), "cents=%d", int64(tc.in))
	}
}

func TestMoneyMul(t *testing.T) {
	require.Equal(t, Money(79400), Money(39700).Mul(2))
	require.InDelta(t, 794.0, Money(79400).Float(), 1e-9)
}

func TestTranscriptClone_DoesNotAlias(t *testing.T) {
	orig := Transcript{{Role: RoleSystem, Content: "seed"}}
	clone := orig.Clone()
	clone[0].Content = "changed"
	require.Equal(t, "seed", orig[0].Content)
	require.Nil(t, Transcript(nil).Clone())
}
