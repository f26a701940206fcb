package memory

import (
	"context"
	"sync"

	"github.com/juulhao/payhook/internal/repository"
)

// DefaultEventsPerReference - сколько событий хранится на один заказ
const DefaultEventsPerReference = 50

// EventLog хранит последние события по каждому заказу (кольцо фиксированного размера)
type EventLog struct {
	mu     sync.RWMutex
	max    int
	events map[string][]repository.PaymentEvent
}

// NewEventLog создаёт in-memory лог событий; maxPerReference <= 0 означает DefaultEventsPerReference
func NewEventLog(maxPerReference int) *EventLog {
	if maxPerReference <= 0 {
		maxPerReference = DefaultEventsPerReference
	}
	return &EventLog{
		max:    maxPerReference,
		events: make(map[string][]repository.PaymentEvent),
	}
}

// Append добавляет событие, вытесняя самое старое при переполнении
func (l *EventLog) Append(ctx context.Context, event repository.PaymentEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append(l.events[event.ExternalReference], event)
	if len(list) > l.max {
		list = list[len(list)-l.max:]
	}
	l.events[event.ExternalReference] = list
	return nil
}

// ListByReference возвращает до limit последних событий, новые первыми
func (l *EventLog) ListByReference(ctx context.Context, externalReference string, limit int) ([]repository.PaymentEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	list := l.events[externalReference]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	result := make([]repository.PaymentEvent, 0, limit)
	for i := len(list) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, list[i])
	}
	return result, nil
}
