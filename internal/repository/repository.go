package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus - статус оплаты заказа на нашей стороне
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusPaid      PaymentStatus = "paid"
	StatusRejected  PaymentStatus = "rejected"
	StatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal возвращает true для paid, rejected и cancelled.
// Терминальный статус больше никогда не перезаписывается.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid проверяет, что статус входит в enum
func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// OrderPaymentState - записанное состояние оплаты заказа, ключ ExternalReference
type OrderPaymentState struct {
	ExternalReference string
	PaymentStatus     PaymentStatus
	PaymentID         string
	UpdatedAt         time.Time
}

// PaymentEvent - событие для фронтенда, создаётся на каждый применённый переход
type PaymentEvent struct {
	ID                string
	ExternalReference string
	Event             string // payment_<provider status>, например payment_approved
	PaymentID         string
	Status            string
	Amount            decimal.Decimal
	Currency          string
	Timestamp         time.Time
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OrderStore --dir=. --output=./mocks --outpkg=mocks

// OrderStore - узкий интерфейс хранилища состояний оплаты.
// Сериализация read-modify-write по ключу делается снаружи (service.Locker).
type OrderStore interface {
	// Get возвращает ErrNotFound, если записи для externalReference нет
	Get(ctx context.Context, externalReference string) (OrderPaymentState, error)

	// Upsert создаёт или перезаписывает состояние
	Upsert(ctx context.Context, externalReference string, status PaymentStatus, paymentID string, updatedAt time.Time) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=EventLog --dir=. --output=./mocks --outpkg=mocks

// EventLog - таблица событий для polling со стороны фронтенда
type EventLog interface {
	Append(ctx context.Context, event PaymentEvent) error

	// ListByReference возвращает последние limit событий заказа, новые первыми
	ListByReference(ctx context.Context, externalReference string, limit int) ([]PaymentEvent, error)
}

// ErrNotFound возвращается, когда состояние заказа не найдено в хранилище
var ErrNotFound = errors.New("order payment state not found")
