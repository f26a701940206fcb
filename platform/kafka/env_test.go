package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadEnv()
		require.NoError(t, err)
		require.False(t, cfg.Enabled)
		require.Equal(t, []string{"localhost:19092"}, cfg.Brokers)
		require.Equal(t, "payment.events", cfg.PaymentEventsTopic)
		require.Equal(t, 5*time.Second, cfg.WriteTimeout)
	})

	t.Run("brokers list", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("KAFKA_PAYMENT_EVENTS_TOPIC", "mp.payments")

		cfg, err := LoadEnv()
		require.NoError(t, err)
		require.True(t, cfg.Enabled)
		require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
		require.Equal(t, "mp.payments", cfg.PaymentEventsTopic)
	})

	t.Run("invalid bool", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "maybe")
		_, err := LoadEnv()
		require.Error(t, err)
	})
}

func TestNewWriter(t *testing.T) {
	w := NewWriter(DefaultConfig(), "payment.events")
	defer w.Close()

	require.Equal(t, "payment.events", w.Topic)
	require.Equal(t, "localhost:19092", w.Addr.String())
}
