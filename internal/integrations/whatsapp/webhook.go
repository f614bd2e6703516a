package whatsapp

import (
	"encoding/json"
	"fmt"

	"megan-waseller/internal/domain"
)

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *reply `json:"button_reply"`
		ListReply   *reply `json:"list_reply"`
	} `json:"interactive"`
}

type reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ParseWebhook decodes the first message of a Cloud API webhook delivery.
// ok is false when the delivery carries no message (status updates and the
// like). Unsupported message types yield an empty Text.
func ParseWebhook(body []byte) (domain.InboundMessage, bool, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.InboundMessage{}, false, fmt.Errorf("whatsapp: decode webhook: %w", err)
	}
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return domain.InboundMessage{}, false, nil
	}
	msgs := p.Entry[0].Changes[0].Value.Messages
	if len(msgs) == 0 {
		return domain.InboundMessage{}, false, nil
	}
	m := msgs[0]
	return domain.InboundMessage{From: m.From, Type: m.Type, Text: extractText(m)}, true, nil
}

func extractText(m inboundMessage) string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "interactive":
		i := m.Interactive
		if i == nil {
			return ""
		}
		switch {
		case i.Type == "button_reply" && i.ButtonReply != nil:
			return i.ButtonReply.Title
		case i.Type == "list_reply" && i.ListReply != nil:
			return i.ListReply.Title
		}
	}
	return ""
}
