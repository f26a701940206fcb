package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juulhao/payhook/internal/repository"
)

// OrderStore реализует repository.OrderStore используя PostgreSQL
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore создаёт новый PostgreSQL store
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Get получает состояние оплаты по externalReference
func (s *OrderStore) Get(ctx context.Context, externalReference string) (repository.OrderPaymentState, error) {
	var (
		state  repository.OrderPaymentState
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT external_reference, payment_status, payment_id, updated_at
		 FROM order_payment_states
		 WHERE external_reference = $1`,
		externalReference).Scan(&state.ExternalReference, &status, &state.PaymentID, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.OrderPaymentState{}, repository.ErrNotFound
		}
		return repository.OrderPaymentState{}, fmt.Errorf("select order payment state: %w", err)
	}
	state.PaymentStatus = repository.PaymentStatus(status)
	state.UpdatedAt = state.UpdatedAt.UTC()

	return state, nil
}

// Upsert создаёт или перезаписывает состояние одной командой ON CONFLICT
func (s *OrderStore) Upsert(ctx context.Context, externalReference string, status repository.PaymentStatus, paymentID string, updatedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO order_payment_states (external_reference, payment_status, payment_id, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (external_reference) DO UPDATE SET
		   payment_status = EXCLUDED.payment_status,
		   payment_id = EXCLUDED.payment_id,
		   updated_at = EXCLUDED.updated_at`,
		externalReference, string(status), paymentID, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert order payment state: %w", err)
	}
	return nil
}

// Ping проверяет соединение (для /health)
func (s *OrderStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
