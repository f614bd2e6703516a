package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/logging"
	"megan-waseller/internal/payment"
)

type DirectQuoteInput struct {
	To   string
	Text string
}

type DirectQuoteOutput struct {
	Sent    bool
	Preview string
}

// DirectQuote parses text, prices it when a CEP is present and sends the
// preview to the recipient. Conversation memory is not touched.
func (r *Router) DirectQuote(ctx context.Context, in DirectQuoteInput) (DirectQuoteOutput, error) {
	to := strings.TrimSpace(in.To)
	if to == "" || strings.TrimSpace(in.Text) == "" {
		return DirectQuoteOutput{}, invalidInput("missing_to_or_text", "to/text obrigatórios")
	}

	intent := r.deps.Parser.Parse(in.Text)
	msg := directPreview(in.Text, intent)
	if intent.HasPostalCode() {
		q := r.price(ctx, intent)
		msg += q.freightLine()
		link, err := r.createLink(ctx, q, map[string]any{"to": to})
		switch {
		case err == nil:
			msg += fmt.Sprintf(directLinkLine, link.URL)
		case isNotConfigured(err):
			// Without payment credentials the preview simply has no link line.
		default:
			logging.FromContext(ctx).Warn("payment link failed",
				"outcome", "payment_link_failed", "to", to, "err", err)
			msg += directLinkFailed
		}
	} else {
		msg += askPostalCode
	}

	if err := r.Send(ctx, to, msg); err != nil {
		return DirectQuoteOutput{Preview: msg}, err
	}
	return DirectQuoteOutput{Sent: true, Preview: msg}, nil
}

type PaymentInput struct {
	Title      string
	Quantity   int
	UnitPrice  float64
	To         string
	PostalCode string
}

type PaymentOutput struct {
	ID        string
	InitPoint string
}

// CreatePayment creates an on-demand payment link for a single line item.
func (r *Router) CreatePayment(ctx context.Context, in PaymentInput) (PaymentOutput, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultPaymentTitle
	}
	link, err := r.deps.Payments.CreateLink(ctx, []domain.LineItem{{
		Title:     title,
		Quantity:  in.Quantity,
		UnitPrice: domain.MoneyFromFloat(in.UnitPrice),
		Currency:  domain.CurrencyBRL,
	}}, map[string]any{"to": in.To, "cep": in.PostalCode})
	if err != nil {
		return PaymentOutput{}, paymentError(err)
	}
	return PaymentOutput{ID: link.ID, InitPoint: link.URL}, nil
}

func isNotConfigured(err error) bool {
	var perr *payment.Error
	return errors.As(err, &perr) && perr.Code == payment.ErrorNotConfigured
}

func paymentError(err error) *Error {
	var perr *payment.Error
	if !errors.As(err, &perr) {
		return newError(ErrorInternal, "payment_error", err)
	}
	switch perr.Code {
	case payment.ErrorInvalidRequest:
		return &Error{Code: ErrorInvalidInput, Reason: perr.Reason, Message: "pedido de pagamento inválido", Err: err}
	case payment.ErrorNotConfigured:
		return &Error{Code: ErrorNotConfigured, Reason: perr.Reason, Message: "MP_ACCESS_TOKEN não configurado", Err: err}
	default:
		return newError(ErrorUpstream, perr.Reason, err)
	}
}

// Send delivers a raw text message.
func (r *Router) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" || strings.TrimSpace(body) == "" {
		return invalidInput("missing_to_or_body", "to/body obrigatórios")
	}
	cctx, cancel := context.WithTimeout(ctx, r.deps.Timeout)
	defer cancel()
	if err := r.deps.Messenger.Send(cctx, to, body); err != nil {
		return newError(ErrorUpstream, "send_failed", err)
	}
	return nil
}

// VerifyHandshake answers the messaging channel's subscription check.
func (r *Router) VerifyHandshake(mode, token, challenge string) (string, bool) {
	return r.deps.Messenger.VerifyHandshake(mode, token, challenge)
}

// PaymentNotification records an asynchronous gateway notification. The
// payload is opaque and drives no state change.
func (r *Router) PaymentNotification(ctx context.Context, payload []byte) {
	logging.FromContext(ctx).Info("payment notification received", "payload", string(payload))
}
