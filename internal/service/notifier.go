package service

import (
	"context"
	"errors"

	"github.com/juulhao/payhook/internal/repository"
)

// MultiNotifier рассылает событие всем каналам. Ошибка одного канала не мешает остальным.
type MultiNotifier []Notifier

// Emit вызывает все каналы и объединяет ошибки
func (m MultiNotifier) Emit(ctx context.Context, event repository.PaymentEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventLogNotifier пишет события в таблицу, которую опрашивает фронтенд
type EventLogNotifier struct {
	log repository.EventLog
}

// NewEventLogNotifier оборачивает EventLog в Notifier
func NewEventLogNotifier(log repository.EventLog) *EventLogNotifier {
	return &EventLogNotifier{log: log}
}

// Emit добавляет событие в лог
func (n *EventLogNotifier) Emit(ctx context.Context, event repository.PaymentEvent) error {
	return n.log.Append(ctx, event)
}
