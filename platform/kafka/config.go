package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Config содержит конфигурацию для подключения к Kafka
type Config struct {
	// Enabled выключает публикацию событий целиком (локальная разработка без брокера)
	Enabled bool `env:"KAFKA_ENABLED" envDefault:"false"`
	// Brokers - список брокеров через запятую:
	//   - локальная разработка (go run): localhost:19092
	//   - запуск в Docker: kafka:9092
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:19092"`
	// PaymentEventsTopic - топик событий оплаты для фронтенда
	PaymentEventsTopic string        `env:"KAFKA_PAYMENT_EVENTS_TOPIC" envDefault:"payment.events"`
	WriteTimeout       time.Duration `env:"KAFKA_WRITE_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig возвращает конфигурацию с дефолтными значениями для локальной разработки
func DefaultConfig() Config {
	return Config{
		Brokers:            []string{"localhost:19092"},
		PaymentEventsTopic: "payment.events",
		WriteTimeout:       5 * time.Second,
	}
}

// NewWriter создаёт kafka.Writer для топика. Балансировка по хешу ключа,
// чтобы события одного заказа попадали в одну партицию и сохраняли порядок.
func NewWriter(cfg Config, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
}
