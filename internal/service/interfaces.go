package service

import (
	"context"
	"time"

	"github.com/juulhao/payhook/internal/repository"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=PaymentQuery --dir=. --output=./mocks --outpkg=mocks

// PaymentQuery - API запросов платежей провайдера (Mercado Pago /v1/payments)
type PaymentQuery interface {
	// GetPayment возвращает платёж по id провайдера
	GetPayment(ctx context.Context, paymentID string) (PaymentDetails, error)

	// SearchPayments собирает все страницы поиска по external_reference
	SearchPayments(ctx context.Context, externalReference string) ([]PaymentDetails, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Notifier --dir=. --output=./mocks --outpkg=mocks

// Notifier доставляет события оплаты фронтенду (таблица для polling, Kafka)
type Notifier interface {
	Emit(ctx context.Context, event repository.PaymentEvent) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Locker --dir=. --output=./mocks --outpkg=mocks

// Locker сериализует read-modify-write по одному external reference
type Locker interface {
	// Lock ждёт захвата ключа или отмены ctx. release вызывается ровно один раз.
	Lock(ctx context.Context, key string) (func(), error)
}

// MetricsRecorder пишет метрики обработки (реализация на OpenTelemetry в app)
type MetricsRecorder interface {
	RecordReconcile(ctx context.Context, result Result, reason SkipReason)
	RecordLookup(ctx context.Context, d time.Duration, ok bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordReconcile(context.Context, Result, SkipReason) {}
func (nopMetrics) RecordLookup(context.Context, time.Duration, bool)   {}
