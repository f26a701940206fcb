package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	platformobservability "github.com/juulhao/payhook/platform/observability"

	"github.com/juulhao/payhook/internal/repository"
	"github.com/juulhao/payhook/internal/service"
)

const (
	maxWebhookBody    = 1 << 20
	defaultEventLimit = 50
	maxEventLimit     = 200
)

// Handler содержит HTTP-обработчики payhook
type Handler struct {
	logger  *zap.Logger
	service *service.Service
}

// NewHandler создаёт новый HTTP handler
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

type webhookResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type itemResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type paymentResponse struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Currency          string          `json:"currency"`
	PaymentMethodID   string          `json:"payment_method_id"`
	DateCreated       *time.Time      `json:"date_created,omitempty"`
	DateApproved      *time.Time      `json:"date_approved,omitempty"`
	Items             []itemResponse  `json:"items"`
}

type orderStateResponse struct {
	ExternalReference string    `json:"external_reference"`
	PaymentStatus     string    `json:"payment_status"`
	PaymentID         string    `json:"payment_id"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type refreshResponse struct {
	Result  string              `json:"result"`
	Reason  string              `json:"reason,omitempty"`
	Order   *orderStateResponse `json:"order,omitempty"`
	Payment paymentResponse     `json:"payment"`
}

type searchResponse struct {
	ExternalReference string            `json:"external_reference"`
	Payments          []paymentResponse `json:"payments"`
}

type eventResponse struct {
	ID                string          `json:"id"`
	ExternalReference string          `json:"externalReference"`
	Event             string          `json:"event"`
	PaymentID         string          `json:"paymentId"`
	Status            string          `json:"status"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Webhook обрабатывает POST /webhook/mercadopago и POST /checkout-pro/webhook.
// Всегда 200, кроме 400 для некорректного тела: провайдер не должен уходить в ретраи из-за наших сбоев.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := platformobservability.LoggerFromContext(ctx, h.logger)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("webhook processing panicked", zap.Any("panic", rec), zap.Stack("stack"))
			writeJSON(w, http.StatusOK, webhookError())
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Warn("failed to read webhook body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid webhook"})
		return
	}

	result, err := h.service.HandleWebhook(ctx, body, r.Header)
	if err != nil {
		if errors.Is(err, service.ErrMalformedNotification) || errors.Is(err, service.ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid webhook"})
			return
		}
		log.Error("unexpected webhook error", zap.Error(err))
		writeJSON(w, http.StatusOK, webhookError())
		return
	}

	if result.Status == service.WebhookError {
		writeJSON(w, http.StatusOK, webhookError())
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{
		Status:    string(service.WebhookReceived),
		Timestamp: timestamp(),
	})
}

func webhookError() webhookResponse {
	return webhookResponse{
		Status:    string(service.WebhookError),
		Timestamp: timestamp(),
		Message:   "Webhook received but processed with error",
	}
}

// GetPayment обрабатывает GET /payment/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	details, err := h.service.GetPayment(ctx, id)
	if err != nil {
		platformobservability.LoggerFromContext(ctx, h.logger).Error("get payment failed",
			zap.Error(err), zap.String("payment_id", id))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to fetch payment"})
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(details))
}

// SearchPayments обрабатывает GET /payment/external/{ref} и GET /mercadopago/external-ref/{ref}
func (h *Handler) SearchPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "ref")

	payments, err := h.service.SearchPayments(ctx, ref)
	if err != nil {
		platformobservability.LoggerFromContext(ctx, h.logger).Error("search payments failed",
			zap.Error(err), zap.String("external_reference", ref))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to search payments"})
		return
	}

	resp := searchResponse{ExternalReference: ref, Payments: make([]paymentResponse, 0, len(payments))}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// RefreshPayment обрабатывает PUT /payment/external/{ref}: сверка по запросу фронтенда
func (h *Handler) RefreshPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "ref")
	log := platformobservability.LoggerFromContext(ctx, h.logger)

	outcome, details, err := h.service.RefreshPayment(ctx, ref)
	switch {
	case errors.Is(err, service.ErrNoPayments):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no payments for external reference"})
		return
	case errors.Is(err, service.ErrPaymentNotFound):
		log.Error("refresh payment lookup failed", zap.Error(err), zap.String("external_reference", ref))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to refresh payment"})
		return
	case err != nil:
		log.Error("refresh payment reconcile failed", zap.Error(err), zap.String("external_reference", ref))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to reconcile payment"})
		return
	}

	resp := refreshResponse{
		Result:  string(outcome.Result),
		Reason:  string(outcome.Reason),
		Payment: toPaymentResponse(details),
	}
	if outcome.State.ExternalReference != "" {
		state := toOrderStateResponse(outcome.State)
		resp.Order = &state
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrderPayment обрабатывает GET /orders/{ref}/payment
func (h *Handler) GetOrderPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "ref")

	state, err := h.service.OrderState(ctx, ref)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order payment state not found"})
		return
	case err != nil:
		platformobservability.LoggerFromContext(ctx, h.logger).Error("get order state failed",
			zap.Error(err), zap.String("external_reference", ref))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load order state"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderStateResponse(state))
}

// ListOrderEvents обрабатывает GET /orders/{ref}/events?limit=
func (h *Handler) ListOrderEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := chi.URLParam(r, "ref")

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxEventLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	events, err := h.service.ListEvents(ctx, ref, limit)
	if err != nil {
		platformobservability.LoggerFromContext(ctx, h.logger).Error("list events failed",
			zap.Error(err), zap.String("external_reference", ref))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load events"})
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse{
			ID:                e.ID,
			ExternalReference: e.ExternalReference,
			Event:             e.Event,
			PaymentID:         e.PaymentID,
			Status:            e.Status,
			Amount:            e.Amount,
			Currency:          e.Currency,
			Timestamp:         e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toPaymentResponse(d service.PaymentDetails) paymentResponse {
	resp := paymentResponse{
		ID:                d.ID,
		Status:            d.RawStatus,
		StatusDetail:      d.StatusDetail,
		ExternalReference: d.ExternalReference,
		TransactionAmount: d.TransactionAmount,
		Currency:          d.Currency,
		PaymentMethodID:   d.PaymentMethodID,
		DateApproved:      d.DateApproved,
		Items:             make([]itemResponse, 0, len(d.Items)),
	}
	if resp.Status == "" {
		resp.Status = string(d.Status)
	}
	if !d.DateCreated.IsZero() {
		created := d.DateCreated
		resp.DateCreated = &created
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, itemResponse{
			ID:        it.ID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return resp
}

func toOrderStateResponse(s repository.OrderPaymentState) orderStateResponse {
	return orderStateResponse{
		ExternalReference: s.ExternalReference,
		PaymentStatus:     string(s.PaymentStatus),
		PaymentID:         s.PaymentID,
		UpdatedAt:         s.UpdatedAt,
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
