package domain

// MaxQuantity bounds the units of one line item so totals stay far from
// Money overflow.
const MaxQuantity = 9999

// OrderIntent is the purchase intent inferred from one inbound utterance.
// An empty PostalCode means no CEP was found.
type OrderIntent struct {
	Product    string
	Quantity   int
	PostalCode string
}

func (o OrderIntent) HasPostalCode() bool {
	return o.PostalCode != ""
}

// FreightQuote is a shipping price plus a lead time range in business days.
type FreightQuote struct {
	Price        Money
	LeadTimeDays string
}
