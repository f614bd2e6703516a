package domain

const CurrencyBRL = "BRL"

// LineItem is one priced entry of a payment preference.
type LineItem struct {
	Title     string
	Quantity  int
	UnitPrice Money
	Currency  string
}

type CallbackURLs struct {
	Success string
	Failure string
	Pending string
}

// PaymentPreference is the provider-neutral checkout request.
type PaymentPreference struct {
	Items               []LineItem
	CallbackURLs        CallbackURLs
	NotificationURL     string
	AutoReturn          string
	StatementDescriptor string
	Metadata            map[string]any
}

// PaymentLink is a hosted checkout created by the payment provider.
type PaymentLink struct {
	ID  string
	URL string
}
