package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"megan-waseller/internal/catalog"
	"megan-waseller/internal/domain"
	"megan-waseller/internal/logging"
	"megan-waseller/internal/memory"
)

const (
	defaultTimeout    = 8 * time.Second
	defaultMaxContext = 40
)

type Messenger interface {
	Send(ctx context.Context, to, body string) error
	VerifyHandshake(mode, token, challenge string) (string, bool)
}

type Model interface {
	Complete(ctx context.Context, transcript domain.Transcript) (string, error)
}

type Quoter interface {
	Quote(ctx context.Context, postalCode string, weightKg float64) domain.FreightQuote
}

type PaymentLinker interface {
	CreateLink(ctx context.Context, items []domain.LineItem, metadata map[string]any) (domain.PaymentLink, error)
}

type ConversationStore interface {
	Get(ctx context.Context, address string) (domain.Transcript, error)
	Append(ctx context.Context, address string, utterances ...domain.Utterance) error
}

// Serializer runs fn for key after every earlier fn for the same key.
type Serializer interface {
	Do(ctx context.Context, key string, fn func(context.Context)) error
}

type Catalog interface {
	Lookup(ctx context.Context, description string) (catalog.Product, bool)
}

type IntentParser interface {
	Parse(text string) domain.OrderIntent
}

// Deps are the Router collaborators. Messenger, Model, Quoter, Payments,
// Memory, Serializer, Catalog and Parser are required.
type Deps struct {
	Messenger  Messenger
	Model      Model
	Quoter     Quoter
	Payments   PaymentLinker
	Memory     ConversationStore
	Serializer Serializer
	Catalog    Catalog
	Parser     IntentParser

	// Timeout bounds each external call. Zero means 8s.
	Timeout time.Duration
	// MaxContext caps the utterances handed to the model. Zero means 40.
	MaxContext int
}

// Router drives one inbound message through menu, quote and AI replies.
type Router struct {
	deps Deps
}

func NewRouter(d Deps) (*Router, error) {
	switch {
	case d.Messenger == nil:
		return nil, errors.New("usecase: messenger must not be nil")
	case d.Model == nil:
		return nil, errors.New("usecase: model must not be nil")
	case d.Quoter == nil:
		return nil, errors.New("usecase: quoter must not be nil")
	case d.Payments == nil:
		return nil, errors.New("usecase: payment linker must not be nil")
	case d.Memory == nil:
		return nil, errors.New("usecase: conversation store must not be nil")
	case d.Serializer == nil:
		return nil, errors.New("usecase: serializer must not be nil")
	case d.Catalog == nil:
		return nil, errors.New("usecase: catalog must not be nil")
	case d.Parser == nil:
		return nil, errors.New("usecase: intent parser must not be nil")
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}
	if d.MaxContext <= 0 {
		d.MaxContext = defaultMaxContext
	}
	return &Router{deps: d}, nil
}

// State is the terminal state of one inbound turn.
type State string

const (
	StateIgnored     State = "ignored"
	StateMenuReplied State = "menu_replied"
	StateReplied     State = "replied"
)

type Outcome struct {
	State          State
	QuoteAttempted bool
}

// HandleInbound runs one turn for msg. Turns from the same sender never
// overlap. Collaborator failures are logged and masked; the returned error
// is non-nil only when the turn could not be scheduled.
func (r *Router) HandleInbound(ctx context.Context, msg domain.InboundMessage) (Outcome, error) {
	from := strings.TrimSpace(msg.From)
	text := strings.TrimSpace(msg.Text)
	log := logging.FromContext(ctx).With("from", from, "type", msg.Type)
	if from == "" || text == "" {
		log.Info("inbound message ignored", "state", StateIgnored)
		return Outcome{State: StateIgnored}, nil
	}

	var out Outcome
	err := r.deps.Serializer.Do(ctx, from, func(ctx context.Context) {
		out = r.turn(ctx, from, msg.Text)
	})
	if err != nil {
		return Outcome{}, newError(ErrorInternal, "turn_not_scheduled", err)
	}
	log.Info("inbound message handled", "state", out.State, "quote_attempted", out.QuoteAttempted)
	return out, nil
}

func (r *Router) turn(ctx context.Context, from, text string) Outcome {
	if isMenuToken(text) {
		r.send(ctx, from, menuText)
		return Outcome{State: StateMenuReplied}
	}

	out := Outcome{State: StateReplied}
	intent := r.deps.Parser.Parse(text)
	if intent.HasPostalCode() {
		out.QuoteAttempted = true
		r.quoteFlow(ctx, from, intent)
	}
	r.aiReply(ctx, from, text, out.QuoteAttempted)
	return out
}

func (r *Router) quoteFlow(ctx context.Context, from string, intent domain.OrderIntent) {
	q := r.price(ctx, intent)
	r.send(ctx, from, q.summary())

	link, err := r.createLink(ctx, q, map[string]any{"from": from})
	if err != nil {
		logging.FromContext(ctx).Warn("payment link failed",
			"outcome", "payment_link_failed", "from", from, "err", err)
		r.send(ctx, from, paymentFailText)
		return
	}
	r.send(ctx, from, fmt.Sprintf(paymentLinkText, link.URL))
}

func (r *Router) aiReply(ctx context.Context, from, text string, quoted bool) {
	log := logging.FromContext(ctx)
	user := domain.Utterance{Role: domain.RoleUser, Content: text}

	transcript, err := r.deps.Memory.Get(ctx, from)
	if err != nil {
		log.Error("load conversation failed", "from", from, "err", err)
	}
	prompt := append(transcript.Clone(), user)

	reply := askDetailsReply
	if quoted {
		reply = afterQuoteReply
	}
	cctx, cancel := context.WithTimeout(ctx, r.deps.Timeout)
	completion, err := r.deps.Model.Complete(cctx, memory.Window(prompt, r.deps.MaxContext))
	cancel()
	if err != nil {
		log.Warn("model completion failed, using default reply",
			"outcome", "ai_fallback_default", "from", from, "err", err)
	} else {
		reply = completion
	}

	assistant := domain.Utterance{Role: domain.RoleAssistant, Content: reply}
	if err := r.deps.Memory.Append(ctx, from, user, assistant); err != nil {
		log.Error("append conversation failed", "from", from, "err", err)
	}
	r.send(ctx, from, reply)
}

// price looks up the catalog product and freight for intent.
func (r *Router) price(ctx context.Context, intent domain.OrderIntent) quote {
	product, _ := r.deps.Catalog.Lookup(ctx, intent.Product)
	return quote{
		intent:   intent,
		unit:     product.UnitPrice,
		subtotal: product.UnitPrice.Mul(intent.Quantity),
		freight:  r.deps.Quoter.Quote(ctx, intent.PostalCode, product.WeightFor(intent.Quantity)),
	}
}

func (r *Router) createLink(ctx context.Context, q quote, meta map[string]any) (domain.PaymentLink, error) {
	meta["cep"] = q.intent.PostalCode
	meta["product"] = q.intent.Product
	meta["qty"] = q.intent.Quantity
	meta["frete"] = q.freight.Price.Float()
	return r.deps.Payments.CreateLink(ctx, []domain.LineItem{{
		Title:     q.intent.Product,
		Quantity:  q.intent.Quantity,
		UnitPrice: q.unit,
		Currency:  domain.CurrencyBRL,
	}}, meta)
}

func (r *Router) send(ctx context.Context, to, body string) {
	cctx, cancel := context.WithTimeout(ctx, r.deps.Timeout)
	defer cancel()
	if err := r.deps.Messenger.Send(cctx, to, body); err != nil {
		logging.FromContext(ctx).Warn("send failed", "outcome", "send_failed", "to", to, "err", err)
	}
}
