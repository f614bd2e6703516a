package domain

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Utterance is the provider-agnostic chat message shape used by the router,
// the memory drivers and LLM integrations.
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered utterance history of one conversation.
type Transcript []Utterance

// Clone returns a copy that does not share the backing array.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
