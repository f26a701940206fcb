package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
)

// messageReader - часть kafka.Reader, которая нужна Tail
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Tail читает топик событий оплаты без consumer group (отладка push-канала фронтенда)
type Tail struct {
	logger *zap.Logger
	reader messageReader
}

// NewTail создаёт Tail. fromBeginning читает топик с первого offset, иначе только новые сообщения.
func NewTail(logger *zap.Logger, brokers []string, topic string, fromBeginning bool) *Tail {
	start := kafka.LastOffset
	if fromBeginning {
		start = kafka.FirstOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		StartOffset: start,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	})
	return newTail(logger, reader)
}

func newTail(logger *zap.Logger, reader messageReader) *Tail {
	return &Tail{logger: logger, reader: reader}
}

// Run вызывает handle для каждого события, пока не отменён ctx.
// Сообщения, которые не удалось разобрать, логируются и пропускаются.
func (t *Tail) Run(ctx context.Context, handle func(repository.PaymentEvent) error) error {
	for {
		m, err := t.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		event, err := DecodePaymentEvent(m)
		if err != nil {
			t.logger.Warn("skipping malformed payment event",
				zap.Error(err),
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
			continue
		}
		if err := handle(event); err != nil {
			return err
		}
	}
}

// Close закрывает Kafka reader
func (t *Tail) Close() error {
	return t.reader.Close()
}

// DecodePaymentEvent разбирает сообщение, опубликованное PaymentEventPublisher
func DecodePaymentEvent(m kafka.Message) (repository.PaymentEvent, error) {
	var msg paymentEventMessage
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return repository.PaymentEvent{}, fmt.Errorf("unmarshal payment event: %w", err)
	}
	if _, err := uuid.Parse(msg.EventID); err != nil {
		return repository.PaymentEvent{}, fmt.Errorf("invalid event_id %q: %w", msg.EventID, err)
	}
	if msg.ExternalReference == "" {
		return repository.PaymentEvent{}, fmt.Errorf("payment event %s without externalReference", msg.EventID)
	}

	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return repository.PaymentEvent{}, fmt.Errorf("invalid amount %q: %w", msg.Amount, err)
	}
	ts, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		return repository.PaymentEvent{}, fmt.Errorf("invalid timestamp %q: %w", msg.Timestamp, err)
	}

	return repository.PaymentEvent{
		ID:                msg.EventID,
		ExternalReference: msg.ExternalReference,
		Event:             msg.Event,
		PaymentID:         msg.PaymentID,
		Status:            msg.Status,
		Amount:            amount,
		Currency:          msg.Currency,
		Timestamp:         ts,
	}, nil
}
