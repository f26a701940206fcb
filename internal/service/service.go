package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
)

// WebhookStatus - значение поля status в ответе webhook
type WebhookStatus string

const (
	WebhookReceived WebhookStatus = "received"
	WebhookError    WebhookStatus = "error"
)

// WebhookResult - итог обработки одного webhook. Ответ всегда 200, кроме отклонённого тела.
type WebhookResult struct {
	Status       WebhookStatus
	ReceivedAt   time.Time
	Notification PaymentNotification
	Outcome      *Outcome
}

// Config - параметры сервиса
type Config struct {
	WebhookSecret   string
	ProviderTimeout time.Duration
	StoreTimeout    time.Duration
}

// Service собирает конвейер Receiver -> Normalizer -> Reconciler
// и запросы к провайдеру/хранилищу для HTTP API.
type Service struct {
	logger     *zap.Logger
	cfg        Config
	query      PaymentQuery
	store      repository.OrderStore
	events     repository.EventLog
	receiver   *Receiver
	normalizer *Normalizer
	reconciler *Reconciler
}

// NewService создаёт новый экземпляр Service
func NewService(
	logger *zap.Logger,
	cfg Config,
	query PaymentQuery,
	store repository.OrderStore,
	events repository.EventLog,
	notifier Notifier,
	locker Locker,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		logger:     logger,
		cfg:        cfg,
		query:      query,
		store:      store,
		events:     events,
		receiver:   NewReceiver(cfg.WebhookSecret),
		normalizer: NewNormalizer(logger, query, cfg.ProviderTimeout, metrics),
		reconciler: NewReconciler(logger, store, notifier, locker, cfg.StoreTimeout, metrics),
	}
}

// Reconciler отдаёт reconciler сервиса (для подмены часов в тестах)
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// HandleWebhook обрабатывает webhook синхронно.
// Ошибку возвращает только для отклонённого тела (ErrMalformedNotification, ErrInvalidSignature);
// все внутренние сбои логируются и дают WebhookError.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, headers http.Header) (WebhookResult, error) {
	reception, err := s.receiver.Receive(body, headers)
	if err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err))
		return WebhookResult{}, err
	}

	n := reception.Notification
	result := WebhookResult{
		Status:       WebhookReceived,
		ReceivedAt:   reception.ReceivedAt,
		Notification: n,
	}
	log := s.logger.With(
		zap.String("kind", string(n.Kind)),
		zap.String("payment_id", n.ProviderPaymentID),
		zap.String("action", n.Action),
	)
	log.Info("webhook received")

	details, err := s.normalizer.Normalize(ctx, n)
	switch {
	case errors.Is(err, ErrNotificationIgnored):
		log.Info("notification ignored")
		return result, nil
	case err != nil:
		log.Error("payment lookup failed", zap.Error(err))
		result.Status = WebhookError
		return result, nil
	}

	outcome, err := s.reconciler.Reconcile(ctx, details)
	if err != nil {
		log.Error("reconciliation failed", zap.Error(err))
		result.Status = WebhookError
		return result, nil
	}
	result.Outcome = &outcome

	return result, nil
}

// GetPayment запрашивает платёж у провайдера
func (s *Service) GetPayment(ctx context.Context, paymentID string) (PaymentDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	details, err := s.query.GetPayment(ctx, paymentID)
	if err != nil {
		return PaymentDetails{}, fmt.Errorf("%w: payment %s: %w", ErrPaymentNotFound, paymentID, err)
	}
	return details, nil
}

// SearchPayments ищет все платежи заказа у провайдера
func (s *Service) SearchPayments(ctx context.Context, externalReference string) ([]PaymentDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	payments, err := s.query.SearchPayments(ctx, externalReference)
	if err != nil {
		return nil, fmt.Errorf("%w: search payments %s: %w", ErrPaymentNotFound, externalReference, err)
	}
	return payments, nil
}

// RefreshPayment - сверка по запросу: берёт авторитетный платёж заказа
// из поиска провайдера и прогоняет его через Reconciler.
// Ошибки провайдера оборачивают ErrPaymentNotFound, пустой поиск - ErrNoPayments,
// остальное (lock, чтение store) приходит из Reconciler как есть.
func (s *Service) RefreshPayment(ctx context.Context, externalReference string) (Outcome, PaymentDetails, error) {
	payments, err := s.SearchPayments(ctx, externalReference)
	if err != nil {
		return Outcome{}, PaymentDetails{}, err
	}

	details, ok := PickAuthoritative(payments)
	if !ok {
		return Outcome{}, PaymentDetails{}, fmt.Errorf("%w: %s", ErrNoPayments, externalReference)
	}
	// Поиск может вернуть платёж без external_reference в ответе
	if details.ExternalReference == "" {
		details.ExternalReference = externalReference
	}

	outcome, err := s.reconciler.Reconcile(ctx, details)
	if err != nil {
		return Outcome{}, details, err
	}

	s.logger.Info("payment status refreshed",
		zap.String("external_reference", externalReference),
		zap.String("payment_id", details.ID),
		zap.String("result", string(outcome.Result)),
		zap.String("reason", string(outcome.Reason)),
	)
	return outcome, details, nil
}

// OrderState возвращает записанное состояние оплаты (repository.ErrNotFound, если нет)
func (s *Service) OrderState(ctx context.Context, externalReference string) (repository.OrderPaymentState, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	return s.store.Get(ctx, externalReference)
}

// ListEvents возвращает последние события заказа для polling
func (s *Service) ListEvents(ctx context.Context, externalReference string, limit int) ([]repository.PaymentEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	return s.events.ListByReference(ctx, externalReference, limit)
}
