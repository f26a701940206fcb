package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
)

// messageWriter - часть kafka.Writer, которая нужна publisher (подменяется в тестах)
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentEventPublisher реализует service.Notifier: публикует события оплаты в Kafka,
// ключ сообщения - external reference, чтобы события заказа шли по порядку.
type PaymentEventPublisher struct {
	logger *zap.Logger
	writer messageWriter
	topic  string
}

// NewPaymentEventPublisher создаёт publisher поверх готового writer (platform/kafka.NewWriter)
func NewPaymentEventPublisher(logger *zap.Logger, writer *kafka.Writer) *PaymentEventPublisher {
	return newPublisher(logger, writer, writer.Topic)
}

func newPublisher(logger *zap.Logger, writer messageWriter, topic string) *PaymentEventPublisher {
	return &PaymentEventPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// paymentEventMessage - JSON payload события
type paymentEventMessage struct {
	EventID           string `json:"event_id"`
	EventVersion      int    `json:"event_version"`
	ExternalReference string `json:"externalReference"`
	Event             string `json:"event"`
	PaymentID         string `json:"paymentId"`
	Status            string `json:"status"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Timestamp         string `json:"timestamp"`
}

// Close закрывает Kafka writer
func (p *PaymentEventPublisher) Close() error {
	return p.writer.Close()
}

// Emit публикует событие оплаты
func (p *PaymentEventPublisher) Emit(ctx context.Context, event repository.PaymentEvent) error {
	payload := paymentEventMessage{
		EventID:           event.ID,
		EventVersion:      1,
		ExternalReference: event.ExternalReference,
		Event:             event.Event,
		PaymentID:         event.PaymentID,
		Status:            event.Status,
		Amount:            event.Amount.String(),
		Currency:          event.Currency,
		Timestamp:         event.Timestamp.UTC().Format(time.RFC3339),
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ExternalReference),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		p.logger.Error("failed to publish payment event",
			zap.Error(err),
			zap.String("topic", p.topic),
			zap.String("external_reference", event.ExternalReference),
		)
		return fmt.Errorf("publish payment event: %w", err)
	}

	p.logger.Info("payment event published",
		zap.String("topic", p.topic),
		zap.String("event", event.Event),
		zap.String("external_reference", event.ExternalReference),
		zap.String("payment_id", event.PaymentID),
	)
	return nil
}
