package domain

// Message is a single persisted transcript utterance.
type Message struct {
	PK      string
	SK      string
	Address string
	Role    string
	Content string
	TTL     int64
}

// ConversationMeta stores aggregate conversation state.
type ConversationMeta struct {
	PK           string
	SK           string
	Address      string
	LastActivity string
	TTL          int64
}
