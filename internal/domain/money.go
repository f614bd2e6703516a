package domain

import (
	"math"
	"strconv"
	"strings"
)

// Money is an amount in BRL cents.
type Money int64

// MoneyFromFloat rounds v to two decimals.
func MoneyFromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) Mul(n int) Money {
	return m * Money(n)
}

// String formats the amount the pt-BR way, e.g. "R$ 1.234,56".
func (m Money) String() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + "R$ " + b.String() + "," + frac
}
