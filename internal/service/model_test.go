package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/juulhao/payhook/internal/repository"
	"github.com/juulhao/payhook/internal/service"
)

func TestNormalizeProviderStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected service.ProviderStatus
		order    repository.PaymentStatus
		tracked  bool
	}{
		{"approved", service.ProviderApproved, repository.StatusPaid, true},
		{"pending", service.ProviderPending, repository.StatusPending, true},
		{"in_process", service.ProviderPending, repository.StatusPending, true},
		{"authorized", service.ProviderPending, repository.StatusPending, true},
		{"rejected", service.ProviderRejected, repository.StatusRejected, true},
		{"cancelled", service.ProviderCancelled, repository.StatusCancelled, true},
		{"refunded", service.ProviderUnknown, "", false},
		{"charged_back", service.ProviderUnknown, "", false},
		{"", service.ProviderUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status := service.NormalizeProviderStatus(tt.raw)
			require.Equal(t, tt.expected, status)

			order, ok := status.OrderStatus()
			require.Equal(t, tt.tracked, ok)
			require.Equal(t, tt.order, order)
		})
	}
}

func TestPickAuthoritative(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := func(id string, status service.ProviderStatus, offset time.Duration) service.PaymentDetails {
		return service.PaymentDetails{ID: id, Status: status, DateCreated: base.Add(offset)}
	}

	t.Run("empty", func(t *testing.T) {
		_, ok := service.PickAuthoritative(nil)
		require.False(t, ok)
	})

	t.Run("approved wins over newer", func(t *testing.T) {
		best, ok := service.PickAuthoritative([]service.PaymentDetails{
			p("1", service.ProviderRejected, 0),
			p("2", service.ProviderApproved, time.Minute),
			p("3", service.ProviderPending, time.Hour),
		})
		require.True(t, ok)
		require.Equal(t, "2", best.ID)
	})

	t.Run("latest when none approved", func(t *testing.T) {
		best, _ := service.PickAuthoritative([]service.PaymentDetails{
			p("1", service.ProviderRejected, time.Hour),
			p("2", service.ProviderPending, 0),
			p("3", service.ProviderCancelled, 2*time.Hour),
		})
		require.Equal(t, "3", best.ID)
	})

	t.Run("latest approved among several", func(t *testing.T) {
		best, _ := service.PickAuthoritative([]service.PaymentDetails{
			p("1", service.ProviderApproved, 0),
			p("2", service.ProviderPending, 3*time.Hour),
			p("3", service.ProviderApproved, time.Hour),
		})
		require.Equal(t, "3", best.ID)
	})
}

func TestParseNotificationKind(t *testing.T) {
	require.Equal(t, service.KindPayment, service.ParseNotificationKind("payment"))
	require.Equal(t, service.KindMerchantOrder, service.ParseNotificationKind("merchant_order"))
	require.Equal(t, service.KindUnknown, service.ParseNotificationKind("chargebacks"))
}
