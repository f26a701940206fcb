package memory

import (
	"context"
	"sync"
	"time"

	"github.com/juulhao/payhook/internal/repository"
)

// OrderStore реализует repository.OrderStore используя in-memory map.
// Используется для разработки и тестов, состояние теряется при рестарте.
type OrderStore struct {
	mu     sync.RWMutex
	states map[string]repository.OrderPaymentState
}

// NewOrderStore создаёт новый in-memory store
func NewOrderStore() *OrderStore {
	return &OrderStore{
		states: make(map[string]repository.OrderPaymentState),
	}
}

// Get получает состояние оплаты по externalReference
func (s *OrderStore) Get(ctx context.Context, externalReference string) (repository.OrderPaymentState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[externalReference]
	if !ok {
		return repository.OrderPaymentState{}, repository.ErrNotFound
	}
	return state, nil
}

// Upsert создаёт или перезаписывает состояние
func (s *OrderStore) Upsert(ctx context.Context, externalReference string, status repository.PaymentStatus, paymentID string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[externalReference] = repository.OrderPaymentState{
		ExternalReference: externalReference,
		PaymentStatus:     status,
		PaymentID:         paymentID,
		UpdatedAt:         updatedAt,
	}
	return nil
}
