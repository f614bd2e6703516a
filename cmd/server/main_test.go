package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"megan-waseller/handler"
	"megan-waseller/internal/domain"
	"megan-waseller/internal/usecase"
)

type stubUseCase struct {
	sentTo, sentBody string
}

func (s *stubUseCase) HandleInbound(context.Context, domain.InboundMessage) (usecase.Outcome, error) {
	return usecase.Outcome{State: usecase.StateReplied}, nil
}

func (s *stubUseCase) VerifyHandshake(mode, token, challenge string) (string, bool) {
	return challenge, mode == "subscribe" && token == "t"
}

func (s *stubUseCase) DirectQuote(context.Context, usecase.DirectQuoteInput) (usecase.DirectQuoteOutput, error) {
	return usecase.DirectQuoteOutput{}, nil
}

func (s *stubUseCase) CreatePayment(context.Context, usecase.PaymentInput) (usecase.PaymentOutput, error) {
	return usecase.PaymentOutput{}, nil
}

func (s *stubUseCase) Send(_ context.Context, to, body string) error {
	s.sentTo, s.sentBody = to, body
	return nil
}

func (s *stubUseCase) PaymentNotification(context.Context, []byte) {}

func newEngine(t *testing.T, uc *stubUseCase) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h, err := handler.NewHandler(uc)
	require.NoError(t, err)
	r := gin.New()
	r.GET("/webhook", proxyTo(h))
	r.POST("/send", proxyTo(h))
	return r
}

func TestProxy_QueryAndStatus(t *testing.T) {
	r := newEngine(t, &stubUseCase{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=t&hub.challenge=abc", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "abc", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=x&hub.challenge=abc", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProxy_BodyAndHeaders(t *testing.T) {
	uc := &stubUseCase{}
	r := newEngine(t, uc)

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"to":"5548","body":"olá"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", "corr-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"ok":true}`, w.Body.String())
	require.Equal(t, "corr-9", w.Header().Get("X-Correlation-Id"))
	require.Equal(t, "5548", uc.sentTo)
	require.Equal(t, "olá", uc.sentBody)
}
