package kafka

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// LoadEnv загружает конфигурацию из переменных окружения (caarlos0/env, env-теги Config)
func LoadEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse kafka env: %w", err)
	}
	if cfg.Enabled && len(cfg.Brokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if cfg.Enabled && cfg.PaymentEventsTopic == "" {
		return Config{}, fmt.Errorf("KAFKA_PAYMENT_EVENTS_TOPIC is required when KAFKA_ENABLED=true")
	}
	return cfg, nil
}
