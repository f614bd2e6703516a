package usecase

import (
	"fmt"
	"strings"

	"megan-waseller/internal/domain"
)

const (
	menuText = "Como posso ajudar?\n1) 🧰 Orçamento\n2) 🚚 Prazo/Frete\n3) 👩‍💼 Humano"

	paymentLinkText  = "Link de pagamento (Cartão/Boleto): %s\nSe preferir Pix com 5%% OFF, me avise que já gero e te mando o QR."
	paymentFailText  = "Não consegui gerar o link agora 😣. Quer que eu tente novamente ou envio Pix?"
	afterQuoteReply  = "Se quiser, posso reservar esse valor por 24h e garantir o brinde de hoje 🧾"
	askDetailsReply  = "Certo! Quer orçamento? Me diga produto, quantidade e CEP 😉"
	askPostalCode    = "\nPara calcular frete/prazo, me envie o **CEP** 😉"
	directLinkLine   = "\nPagamento (Cartão/Boleto): %s"
	directLinkFailed = "\nNão consegui gerar link MP agora."

	// HealthText is the body of the root health check.
	HealthText = "Megan Waseller API+ (frete+pagamento): ok"

	DefaultBotName      = "Megan"
	DefaultPaymentTitle = "Pedido MGF"
)

var menuTokens = map[string]struct{}{
	"menu": {}, "opcoes": {}, "opções": {}, "1": {}, "2": {}, "3": {},
}

func isMenuToken(text string) bool {
	_, ok := menuTokens[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// PersonaPrompt is the system utterance seeding every new conversation.
func PersonaPrompt(botName string) string {
	if strings.TrimSpace(botName) == "" {
		botName = DefaultBotName
	}
	return fmt.Sprintf("Você é %s, atendente da MGF Store. Fale pt-BR. Venda ferramentas (nacional, inox 304, reforçado). "+
		"Se pedirem orçamento: peça produto, quantidade e CEP. Ofereça Pix -5%% e Cartão 3x. Prazo de envio: pedidos até 16h.",
		strings.TrimSpace(botName))
}

// quote is one priced order: product subtotal plus freight.
type quote struct {
	intent   domain.OrderIntent
	unit     domain.Money
	subtotal domain.Money
	freight  domain.FreightQuote
}

func (q quote) total() domain.Money {
	return q.subtotal + q.freight.Price
}

func (q quote) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produto: %s\n", q.intent.Product)
	fmt.Fprintf(&b, "Preço unit.: %s\n", q.unit)
	fmt.Fprintf(&b, "Qtd: %d — Subtotal: %s\n", q.intent.Quantity, q.subtotal)
	fmt.Fprintf(&b, "Frete p/ %s: %s | Prazo: %s dias úteis\n", q.intent.PostalCode, q.freight.Price, q.freight.LeadTimeDays)
	fmt.Fprintf(&b, "**Total:** %s\n", q.total())
	b.WriteString("Como prefere pagar?\n• Pix com 5% OFF\n• Cartão em até 3x\n• Boleto à vista")
	return b.String()
}

func (q quote) freightLine() string {
	return fmt.Sprintf("\nFrete p/ %s: %s | Prazo: %s dias úteis\nTotal: %s",
		q.intent.PostalCode, q.freight.Price, q.freight.LeadTimeDays, q.total())
}

func directPreview(text string, intent domain.OrderIntent) string {
	return fmt.Sprintf("Recebi: \"%s\"\nProduto: %s\nQtd: %d", text, intent.Product, intent.Quantity)
}
