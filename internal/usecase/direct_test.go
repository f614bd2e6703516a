package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/payment"
)

func expectUsecaseError(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, code, ucErr.Code)
	return ucErr
}

func TestDirectQuote_WithPostalCode(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.DirectQuote(context.Background(), DirectQuoteInput{To: "5511", Text: "Kit Alicate 2 un CEP 88200-000"})
	require.NoError(t, err)
	require.True(t, out.Sent)
	require.Equal(t, "Recebi: \"Kit Alicate 2 un CEP 88200-000\"\n"+
		"Produto: kit alicate\nQtd: 2\n"+
		"Frete p/ 88200000: R$ 39,90 | Prazo: 2-4 dias úteis\n"+
		"Total: R$ 833,90\n"+
		"Pagamento (Cartão/Boleto): https://mp.test/pref-1", out.Preview)
	require.Equal(t, []sentMessage{{to: "5511", body: out.Preview}}, f.messenger.sent)
	require.Equal(t, "5511", f.gateway.got.Metadata["to"])
	require.Zero(t, f.lru.Len())
}

func TestDirectQuote_LinkFailure(t *testing.T) {
	f := newFixture(t, func(_ *Deps, f *fixture) { f.gateway.err = errors.New("mp down") })

	out, err := f.router.DirectQuote(context.Background(), DirectQuoteInput{To: "5511", Text: "1 un cep 88010000"})
	require.NoError(t, err)
	require.Contains(t, out.Preview, "\nNão consegui gerar link MP agora.")
}

func TestDirectQuote_PaymentsNotConfigured(t *testing.T) {
	f := newFixture(t, func(d *Deps, _ *fixture) { d.Payments = payment.New(nil, payment.Config{}) })

	out, err := f.router.DirectQuote(context.Background(), DirectQuoteInput{To: "5511", Text: "1 un cep 88010000"})
	require.NoError(t, err)
	require.NotContains(t, out.Preview, "Pagamento")
	require.NotContains(t, out.Preview, "Não consegui")
	require.Zero(t, f.gateway.calls)
}

func TestDirectQuote_WithoutPostalCode(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.DirectQuote(context.Background(), DirectQuoteInput{To: "5511", Text: "quero 3 pçs"})
	require.NoError(t, err)
	require.Equal(t, "Recebi: \"quero 3 pçs\"\nProduto: quero\nQtd: 3\nPara calcular frete/prazo, me envie o **CEP** 😉", out.Preview)
	require.Zero(t, f.gateway.calls)
}

func TestDirectQuote_Validation(t *testing.T) {
	f := newFixture(t)
	for _, in := range []DirectQuoteInput{{To: "", Text: "oi"}, {To: "5511", Text: " "}} {
		_, err := f.router.DirectQuote(context.Background(), in)
		ucErr := expectUsecaseError(t, err, ErrorInvalidInput)
		require.Equal(t, "to/text obrigatórios", ucErr.Message)
	}
	require.Empty(t, f.messenger.sent)
}

func TestDirectQuote_SendFailure(t *testing.T) {
	f := newFixture(t, func(_ *Deps, f *fixture) { f.messenger.err = errors.New("graph down") })

	out, err := f.router.DirectQuote(context.Background(), DirectQuoteInput{To: "5511", Text: "oi"})
	expectUsecaseError(t, err, ErrorUpstream)
	require.False(t, out.Sent)
	require.NotEmpty(t, out.Preview)
}

func TestCreatePayment(t *testing.T) {
	f := newFixture(t)

	out, err := f.router.CreatePayment(context.Background(), PaymentInput{Quantity: 1, UnitPrice: 10.5, To: "5511", PostalCode: "88010000"})
	require.NoError(t, err)
	require.Equal(t, PaymentOutput{ID: "pref-1", InitPoint: "https://mp.test/pref-1"}, out)
	require.Equal(t, []domain.LineItem{{
		Title: DefaultPaymentTitle, Quantity: 1, UnitPrice: domain.MoneyFromFloat(10.5), Currency: domain.CurrencyBRL,
	}}, f.gateway.got.Items)
	require.Equal(t, map[string]any{"to": "5511", "cep": "88010000"}, f.gateway.got.Metadata)
}

func TestCreatePayment_ErrorMapping(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*Deps, *fixture)
		in    PaymentInput
		want  ErrorCode
	}{
		{
			name: "invalid quantity",
			in:   PaymentInput{Quantity: 0, UnitPrice: 1},
			want: ErrorInvalidInput,
		},
		{
			name:  "not configured",
			setup: func(d *Deps, _ *fixture) { d.Payments = payment.New(nil, payment.Config{}) },
			in:    PaymentInput{Quantity: 1, UnitPrice: 1},
			want:  ErrorNotConfigured,
		},
		{
			name:  "gateway failure",
			setup: func(_ *Deps, f *fixture) { f.gateway.err = fmt.Errorf("status 500") },
			in:    PaymentInput{Quantity: 1, UnitPrice: 1},
			want:  ErrorUpstream,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f *fixture
			if tc.setup != nil {
				f = newFixture(t, tc.setup)
			} else {
				f = newFixture(t)
			}
			_, err := f.router.CreatePayment(context.Background(), tc.in)
			expectUsecaseError(t, err, tc.want)
		})
	}
}

func TestSend(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.router.Send(context.Background(), "5511", "olá"))
	require.Equal(t, []sentMessage{{to: "5511", body: "olá"}}, f.messenger.sent)

	expectUsecaseError(t, f.router.Send(context.Background(), "", "olá"), ErrorInvalidInput)
	expectUsecaseError(t, f.router.Send(context.Background(), "5511", ""), ErrorInvalidInput)

	f.messenger.err = errors.New("boom")
	expectUsecaseError(t, f.router.Send(context.Background(), "5511", "olá"), ErrorUpstream)
}

func TestVerifyHandshake(t *testing.T) {
	f := newFixture(t)
	got, ok := f.router.VerifyHandshake("subscribe", "verify", "42")
	require.True(t, ok)
	require.Equal(t, "42", got)

	_, ok = f.router.VerifyHandshake("subscribe", "nope", "42")
	require.False(t, ok)
}

func TestPersonaPrompt(t *testing.T) {
	require.Contains(t, PersonaPrompt("Ana"), "Você é Ana, atendente da MGF Store.")
	require.Contains(t, PersonaPrompt(" "), "Você é Megan,")
	require.Contains(t, PersonaPrompt("Ana"), "Pix -5%")
}
