package domain

// InboundMessage is the plain-text view of one message received from the channel.
type InboundMessage struct {
	From string
	Type string
	Text string
}
