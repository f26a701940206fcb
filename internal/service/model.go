package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/juulhao/payhook/internal/repository"
)

// NotificationKind - категория уведомления провайдера (поле type, иначе topic)
type NotificationKind string

const (
	KindPayment       NotificationKind = "payment"
	KindMerchantOrder NotificationKind = "merchant_order"
	KindUnknown       NotificationKind = "unknown"
)

// ParseNotificationKind переводит type/topic в NotificationKind; всё незнакомое -> KindUnknown
func ParseNotificationKind(s string) NotificationKind {
	switch NotificationKind(s) {
	case KindPayment, KindMerchantOrder:
		return NotificationKind(s)
	default:
		return KindUnknown
	}
}

// PaymentNotification - каноническая форма webhook после Receiver. Не сохраняется.
type PaymentNotification struct {
	Kind              NotificationKind
	ProviderPaymentID string
	Action            string // payment.created, payment.updated
	LiveMode          bool
}

// ProviderStatus - статус платежа у провайдера, сведённый к пяти значениям
type ProviderStatus string

const (
	ProviderApproved  ProviderStatus = "approved"
	ProviderPending   ProviderStatus = "pending"
	ProviderRejected  ProviderStatus = "rejected"
	ProviderCancelled ProviderStatus = "cancelled"
	ProviderUnknown   ProviderStatus = "unknown"
)

// NormalizeProviderStatus сводит сырой статус Mercado Pago к ProviderStatus.
// in_process и authorized ещё не финальны и считаются pending.
func NormalizeProviderStatus(raw string) ProviderStatus {
	switch raw {
	case "approved":
		return ProviderApproved
	case "pending", "in_process", "authorized":
		return ProviderPending
	case "rejected":
		return ProviderRejected
	case "cancelled":
		return ProviderCancelled
	default:
		return ProviderUnknown
	}
}

// OrderStatus возвращает соответствующий статус заказа; false для ProviderUnknown
func (s ProviderStatus) OrderStatus() (repository.PaymentStatus, bool) {
	switch s {
	case ProviderApproved:
		return repository.StatusPaid, true
	case ProviderPending:
		return repository.StatusPending, true
	case ProviderRejected:
		return repository.StatusRejected, true
	case ProviderCancelled:
		return repository.StatusCancelled, true
	default:
		return "", false
	}
}

// PaymentItem - позиция из additional_info.items
type PaymentItem struct {
	ID        string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// PaymentDetails - авторитетные данные платежа, каждый раз запрашиваются у провайдера заново
type PaymentDetails struct {
	ID                string
	Status            ProviderStatus
	RawStatus         string
	StatusDetail      string
	ExternalReference string
	TransactionAmount decimal.Decimal
	Currency          string
	PaymentMethodID   string
	DateCreated       time.Time
	DateApproved      *time.Time
	Items             []PaymentItem
}
