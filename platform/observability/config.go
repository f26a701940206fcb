package observability

import "time"

// Config конфигурация OpenTelemetry (traces + metrics)
type Config struct {
	// Enabled включает экспорт в OTLP collector; иначе ставятся noop providers
	Enabled bool
	// OTLPEndpoint адрес OTLP gRPC, например "127.0.0.1:4317"
	OTLPEndpoint string
	// SamplingRatio доля семплируемых трасс (0..1)
	SamplingRatio float64
	// ServiceName имя сервиса в resource
	ServiceName string
	// DeploymentEnvironment окружение (local, docker)
	DeploymentEnvironment string
	// ServiceVersion версия сборки, опционально
	ServiceVersion string
	// MetricInterval период экспорта метрик, по умолчанию 10s
	MetricInterval time.Duration
}
