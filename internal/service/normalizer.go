package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Normalizer по уведомлению получает авторитетный PaymentDetails у провайдера.
// Без кэша и без локальных ретраев: провайдер сам повторит доставку webhook.
type Normalizer struct {
	logger  *zap.Logger
	query   PaymentQuery
	timeout time.Duration
	metrics MetricsRecorder
}

// NewNormalizer создаёт Normalizer; timeout ограничивает один запрос к провайдеру
func NewNormalizer(logger *zap.Logger, query PaymentQuery, timeout time.Duration, metrics MetricsRecorder) *Normalizer {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Normalizer{
		logger:  logger,
		query:   query,
		timeout: timeout,
		metrics: metrics,
	}
}

// Normalize возвращает ErrNotificationIgnored для merchant_order/unknown
// и ErrPaymentNotFound (с причиной) при любой ошибке запроса.
func (n *Normalizer) Normalize(ctx context.Context, notification PaymentNotification) (PaymentDetails, error) {
	if notification.Kind != KindPayment {
		return PaymentDetails{}, fmt.Errorf("%w: kind %s", ErrNotificationIgnored, notification.Kind)
	}

	ctx, span := tracer.Start(ctx, "Normalizer.Normalize")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", notification.ProviderPaymentID))

	lookupCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	start := time.Now()
	details, err := n.query.GetPayment(lookupCtx, notification.ProviderPaymentID)
	n.metrics.RecordLookup(ctx, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment lookup failed")
		return PaymentDetails{}, fmt.Errorf("%w: payment %s: %w", ErrPaymentNotFound, notification.ProviderPaymentID, err)
	}

	n.logger.Debug("payment details fetched",
		zap.String("payment_id", details.ID),
		zap.String("status", details.RawStatus),
		zap.String("external_reference", details.ExternalReference),
	)

	return details, nil
}
