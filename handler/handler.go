package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"megan-waseller/internal/domain"
	"megan-waseller/internal/integrations/whatsapp"
	"megan-waseller/internal/logging"
	"megan-waseller/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type UseCase interface {
	HandleInbound(ctx context.Context, msg domain.InboundMessage) (usecase.Outcome, error)
	VerifyHandshake(mode, token, challenge string) (string, bool)
	DirectQuote(ctx context.Context, in usecase.DirectQuoteInput) (usecase.DirectQuoteOutput, error)
	CreatePayment(ctx context.Context, in usecase.PaymentInput) (usecase.PaymentOutput, error)
	Send(ctx context.Context, to, body string) error
	PaymentNotification(ctx context.Context, payload []byte)
}

type Handler struct {
	uc UseCase
}

type directQuoteRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type directQuoteResponse struct {
	OK      bool   `json:"ok"`
	Sent    bool   `json:"sent"`
	Preview string `json:"preview"`
}

type paymentRequest struct {
	Title string  `json:"title"`
	Qty   int     `json:"qty"`
	Unit  float64 `json:"unit"`
	To    string  `json:"to"`
	CEP   string  `json:"cep"`
}

type paymentResponse struct {
	OK        bool   `json:"ok"`
	InitPoint string `json:"init_point"`
	ID        string `json:"id"`
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle routes an API Gateway proxy request.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = logging.WithCorrelationID(ctx, correlationID)

	body, err := requestBody(event)
	if err != nil && !isInboundWebhook(event) {
		return h.finish(ctx, event, correlationID, errorResult(usecase.ErrorInvalidInput, "corpo inválido")), nil
	}

	return h.finish(ctx, event, correlationID, h.route(ctx, event, body)), nil
}

func (h *Handler) route(ctx context.Context, event events.APIGatewayProxyRequest, body []byte) events.APIGatewayProxyResponse {
	path := strings.TrimRight(event.Path, "/")
	switch {
	case event.HTTPMethod == http.MethodGet && path == "":
		return textResult(http.StatusOK, usecase.HealthText)
	case event.HTTPMethod == http.MethodGet && path == "/webhook":
		return h.verify(event)
	case isInboundWebhook(event):
		return h.inbound(ctx, body)
	case event.HTTPMethod == http.MethodPost && path == "/waseller-in":
		return h.directQuote(ctx, body)
	case event.HTTPMethod == http.MethodPost && path == "/payments/create":
		return h.createPayment(ctx, body)
	case event.HTTPMethod == http.MethodPost && path == "/payments/webhook":
		h.uc.PaymentNotification(ctx, body)
		return textResult(http.StatusOK, "OK")
	case event.HTTPMethod == http.MethodPost && path == "/send":
		return h.send(ctx, body)
	default:
		return jsonResult(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"})
	}
}

func (h *Handler) verify(event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	q := event.QueryStringParameters
	challenge, ok := h.uc.VerifyHandshake(q["hub.mode"], q["hub.verify_token"], q["hub.challenge"])
	if !ok {
		return textResult(http.StatusForbidden, "Forbidden")
	}
	return textResult(http.StatusOK, challenge)
}

// inbound always acknowledges; the channel retries anything else.
func (h *Handler) inbound(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	log := logging.FromContext(ctx)
	msg, ok, err := whatsapp.ParseWebhook(body)
	if err != nil {
		log.Warn("webhook payload rejected", "err", err)
		return textResult(http.StatusOK, "OK")
	}
	if !ok {
		return textResult(http.StatusOK, "OK")
	}
	if _, err := h.uc.HandleInbound(ctx, msg); err != nil {
		log.Error("inbound message failed", "from", msg.From, "err", err)
	}
	return textResult(http.StatusOK, "OK")
}

func (h *Handler) directQuote(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	var req directQuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResult(usecase.ErrorInvalidInput, "JSON inválido")
	}
	out, err := h.uc.DirectQuote(ctx, usecase.DirectQuoteInput{To: req.To, Text: req.Text})
	if err != nil {
		return h.fail(ctx, err)
	}
	return jsonResult(http.StatusOK, directQuoteResponse{OK: true, Sent: out.Sent, Preview: out.Preview})
}

func (h *Handler) createPayment(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	req := paymentRequest{Title: usecase.DefaultPaymentTitle, Qty: 1, Unit: 1}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return errorResult(usecase.ErrorInvalidInput, "JSON inválido")
		}
	}
	out, err := h.uc.CreatePayment(ctx, usecase.PaymentInput{
		Title:      req.Title,
		Quantity:   req.Qty,
		UnitPrice:  req.Unit,
		To:         req.To,
		PostalCode: req.CEP,
	})
	if err != nil {
		return h.fail(ctx, err)
	}
	return jsonResult(http.StatusOK, paymentResponse{OK: true, InitPoint: out.InitPoint, ID: out.ID})
}

func (h *Handler) send(ctx context.Context, body []byte) events.APIGatewayProxyResponse {
	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResult(usecase.ErrorInvalidInput, "JSON inválido")
	}
	if err := h.uc.Send(ctx, req.To, req.Body); err != nil {
		return h.fail(ctx, err)
	}
	return jsonResult(http.StatusOK, okResponse{OK: true})
}

func (h *Handler) fail(ctx context.Context, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logging.FromContext(ctx).Error("unexpected error", "err", err)
		return errorResult(usecase.ErrorInternal, "")
	}
	if ucErr.Code == usecase.ErrorUpstream || ucErr.Code == usecase.ErrorInternal {
		logging.FromContext(ctx).Error("request failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	}
	return errorResult(ucErr.Code, ucErr.Message)
}

func (h *Handler) finish(ctx context.Context, event events.APIGatewayProxyRequest, correlationID string, resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	resp.Headers[correlationHeader] = correlationID
	logging.FromContext(ctx).Info("request handled",
		"method", event.HTTPMethod, "path", event.Path, "status", resp.StatusCode)
	return resp
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput, usecase.ErrorNotConfigured:
		return http.StatusBadRequest
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResult(code usecase.ErrorCode, message string) events.APIGatewayProxyResponse {
	return jsonResult(statusFor(code), errorResponse{Error: string(code), Message: message})
}

func jsonResult(status int, v any) events.APIGatewayProxyResponse {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"ok":false,"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

func textResult(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       body,
	}
}

func isInboundWebhook(event events.APIGatewayProxyRequest) bool {
	return event.HTTPMethod == http.MethodPost && strings.TrimRight(event.Path, "/") == "/webhook"
}

func requestBody(event events.APIGatewayProxyRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}
	return base64.StdEncoding.DecodeString(event.Body)
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
