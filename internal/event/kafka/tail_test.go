package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juulhao/payhook/internal/repository"
)

// fakeReader отдаёт заранее заданные сообщения, затем ждёт отмены ctx
type fakeReader struct {
	messages []kafka.Message
	err      error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) > 0 {
		m := r.messages[0]
		r.messages = r.messages[1:]
		return m, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

func TestTail_Run(t *testing.T) {
	event := repository.PaymentEvent{
		ID:                "7b0c1c2e-0000-4000-8000-000000000001",
		ExternalReference: "ORD-1",
		Event:             "payment_rejected",
		PaymentID:         "222",
		Status:            "rejected",
		Amount:            decimal.RequireFromString("99.9"),
		Currency:          "BRL",
		Timestamp:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	// Публикуем через publisher, чтобы Tail читал ровно тот формат, который пишет сервис
	writer := &fakeWriter{}
	require.NoError(t, newPublisher(zap.NewNop(), writer, "payment.events").Emit(context.Background(), event))

	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "payment.events", Value: []byte(`not json`)},
		{Topic: "payment.events", Value: []byte(`{"event_id":"nope"}`)},
		writer.messages[0],
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []repository.PaymentEvent
	err := newTail(zap.NewNop(), reader).Run(ctx, func(e repository.PaymentEvent) error {
		got = append(got, e)
		cancel()
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "ORD-1", got[0].ExternalReference)
	require.Equal(t, "payment_rejected", got[0].Event)
	require.True(t, event.Amount.Equal(got[0].Amount))
	require.True(t, event.Timestamp.Equal(got[0].Timestamp))
}

func TestTail_Run_Errors(t *testing.T) {
	t.Run("reader failure", func(t *testing.T) {
		reader := &fakeReader{err: errors.New("broker down")}
		err := newTail(zap.NewNop(), reader).Run(context.Background(), func(repository.PaymentEvent) error { return nil })
		require.ErrorContains(t, err, "broker down")
	})

	t.Run("handler failure stops tail", func(t *testing.T) {
		writer := &fakeWriter{}
		require.NoError(t, newPublisher(zap.NewNop(), writer, "payment.events").Emit(context.Background(), repository.PaymentEvent{
			ID:                "7b0c1c2e-0000-4000-8000-000000000002",
			ExternalReference: "ORD-2",
			Event:             "payment_pending",
			Amount:            decimal.Zero,
			Timestamp:         time.Now(),
		}))

		stop := errors.New("stdout closed")
		reader := &fakeReader{messages: writer.messages}
		err := newTail(zap.NewNop(), reader).Run(context.Background(), func(repository.PaymentEvent) error { return stop })
		require.ErrorIs(t, err, stop)
	})
}
