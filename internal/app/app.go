package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // драйвер pgx для goose
	"github.com/pressly/goose/v3"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	platformhealth "github.com/juulhao/payhook/platform/health/http"
	platformkafka "github.com/juulhao/payhook/platform/kafka"
	platformlogging "github.com/juulhao/payhook/platform/logging"
	platformobservability "github.com/juulhao/payhook/platform/observability"
	platformshutdown "github.com/juulhao/payhook/platform/shutdown"

	httpapi "github.com/juulhao/payhook/internal/api/http"
	"github.com/juulhao/payhook/internal/config"
	eventkafka "github.com/juulhao/payhook/internal/event/kafka"
	"github.com/juulhao/payhook/internal/provider/mercadopago"
	"github.com/juulhao/payhook/internal/repository"
	"github.com/juulhao/payhook/internal/repository/memory"
	"github.com/juulhao/payhook/internal/repository/postgres"
	redislock "github.com/juulhao/payhook/internal/repository/redis"
	"github.com/juulhao/payhook/internal/service"
	"github.com/juulhao/payhook/migrations"
)

const serviceName = "payhook"

var (
	_ service.Locker   = (*redislock.Locker)(nil)
	_ service.Notifier = (*eventkafka.PaymentEventPublisher)(nil)
)

// App содержит все зависимости для запуска и корректного shutdown payhook
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	wg          sync.WaitGroup
}

// Build создаёт и настраивает все зависимости payhook
func Build(cfg config.Config) (*App, error) {
	const op = "app.Build"
	ctx := context.Background()

	// Создаём logger
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       os.Getenv("LOG_LEVEL"),
		Format:      os.Getenv("LOG_FORMAT"),
	})
	if err != nil {
		return nil, err
	}

	// OpenTelemetry: traces + metrics (noop если OTEL_ENABLED=false)
	otelShutdown, err := platformobservability.Init(ctx, platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("op", op))
	cfg.Log(logger)

	// Создаём shutdown manager; функции выполняются в обратном порядке, otel последним
	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	shutdownMgr.Add("otel", otelShutdown)

	// При ошибке сборки освобождаем уже открытые ресурсы
	ok := false
	defer func() {
		if !ok {
			shutdownMgr.Shutdown()
		}
	}()

	var checks []platformhealth.Check

	// Order Store и журнал событий
	var (
		store  repository.OrderStore
		events repository.EventLog
	)
	switch cfg.OrderStore {
	case config.StorePostgres:
		logger.Info("Connecting to PostgreSQL")
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("%s: postgres pool: %w", op, err)
		}
		shutdownMgr.Add("postgres_pool", platformshutdown.ClosePool(pool))

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%s: postgres ping: %w", op, err)
		}
		logger.Info("PostgreSQL connection established")

		// Применяем миграции goose через отдельное *sql.DB соединение
		db, err := goose.OpenDBWithDriver("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("%s: open migrations db: %w", op, err)
		}
		err = migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: migrations: %w", op, err)
		}

		orderStore := postgres.NewOrderStore(pool)
		store = orderStore
		events = postgres.NewEventLog(pool)
		checks = append(checks, platformhealth.Check{Name: "postgres", Probe: orderStore.Ping})
	default:
		logger.Warn("Using in-memory order store, state is lost on restart")
		store = memory.NewOrderStore()
		events = memory.NewEventLog(memory.DefaultEventsPerReference)
	}

	// Lock на external reference: Redis для нескольких реплик, иначе in-process
	var locker service.Locker
	if cfg.RedisAddr != "" {
		logger.Info("Connecting to Redis", zap.String("addr", cfg.RedisAddr))
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		shutdownMgr.Add("redis_client", platformshutdown.Close(client))

		redisLocker := redislock.NewLocker(client, cfg.LockTTL, logger)
		if err := redisLocker.Ping(ctx); err != nil {
			return nil, fmt.Errorf("%s: redis ping: %w", op, err)
		}
		locker = redisLocker
		checks = append(checks, platformhealth.Check{Name: "redis", Probe: redisLocker.Ping})
	} else {
		locker = service.NewKeyedMutex()
	}

	// Notifier: журнал для polling фронтенда, плюс Kafka если включена
	notifier := service.MultiNotifier{service.NewEventLogNotifier(events)}
	if cfg.Kafka.Enabled {
		writer := platformkafka.NewWriter(cfg.Kafka, cfg.Kafka.PaymentEventsTopic)
		publisher := eventkafka.NewPaymentEventPublisher(logger, writer)
		shutdownMgr.Add("kafka_publisher", func(context.Context) error {
			return publisher.Close()
		})
		notifier = append(notifier, publisher)
		logger.Info("Kafka publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.PaymentEventsTopic),
		)
	}

	// Метрики обработки; при отключённом OTEL - noop
	var metrics service.MetricsRecorder
	if cfg.OTelEnabled {
		metrics = newMetricsRecorder()
	}

	// Клиент Mercado Pago
	client := mercadopago.NewClient(logger, cfg.MPAPIBaseURL, cfg.MPAccessToken, cfg.ProviderTimeout, nil)

	// Создаём service слой
	svc := service.NewService(logger, service.Config{
		WebhookSecret:   cfg.MPWebhookSecret,
		ProviderTimeout: cfg.ProviderTimeout,
		StoreTimeout:    cfg.StoreTimeout,
	}, client, store, events, notifier, locker, metrics)

	// Создаем HTTP handler и роутер
	handler := httpapi.NewHandler(svc, logger)
	router := httpapi.NewRouter(handler, logger, checks...)

	// Создаём HTTP сервер
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	// HTTP сервер останавливается первым, пока хранилища ещё доступны
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(httpServer))

	ok = true
	return &App{
		logger:      logger,
		httpServer:  httpServer,
		shutdownMgr: shutdownMgr,
	}, nil
}

// Run запускает сервис и блокируется до получения сигнала shutdown
func (a *App) Run(ctx context.Context) error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("Starting payhook", zap.String("addr", a.httpServer.Addr))
	a.logger.Info("Health check available", zap.String("url", "http://"+a.httpServer.Addr+"/health"))

	// Ждём сигнал или падение сервера
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var serveErr error
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
			serveErr = err
			cancel()
		}
	}()

	a.shutdownMgr.Wait(waitCtx)

	a.wg.Wait()
	a.logger.Info("payhook stopped")
	return serveErr
}
