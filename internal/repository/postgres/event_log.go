package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/juulhao/payhook/internal/repository"
)

// uniqueViolation - код ошибки PostgreSQL для нарушения уникальности
const uniqueViolation = "23505"

// defaultListLimit используется, когда limit не задан
const defaultListLimit = 50

// EventLog реализует repository.EventLog: таблица payment_events, которую опрашивает фронтенд
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog создаёт новый PostgreSQL лог событий
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Append сохраняет событие. Повторная вставка того же ID не считается ошибкой.
func (l *EventLog) Append(ctx context.Context, event repository.PaymentEvent) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", event.ID, err)
	}

	_, err = l.pool.Exec(ctx,
		`INSERT INTO payment_events (id, external_reference, event, payment_id, status, amount, currency, occurred_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::numeric, $7, $8)`,
		id.String(), event.ExternalReference, event.Event, event.PaymentID, event.Status,
		event.Amount.String(), event.Currency, event.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil
		}
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// ListByReference возвращает последние события заказа, новые первыми
func (l *EventLog) ListByReference(ctx context.Context, externalReference string, limit int) ([]repository.PaymentEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id::text, external_reference, event, payment_id, status, amount::text, currency, occurred_at
		 FROM payment_events
		 WHERE external_reference = $1
		 ORDER BY occurred_at DESC, id
		 LIMIT $2`,
		externalReference, limit)
	if err != nil {
		return nil, fmt.Errorf("select payment events: %w", err)
	}
	defer rows.Close()

	events := make([]repository.PaymentEvent, 0)
	for rows.Next() {
		var (
			e      repository.PaymentEvent
			amount string
		)
		if err := rows.Scan(&e.ID, &e.ExternalReference, &e.Event, &e.PaymentID, &e.Status, &amount, &e.Currency, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
