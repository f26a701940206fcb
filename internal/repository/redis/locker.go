package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockNotAcquired возвращается, если ключ не удалось захватить до отмены ctx
var ErrLockNotAcquired = errors.New("lock not acquired")

const (
	keyPrefix    = "payhook:lock:"
	retryBackoff = 25 * time.Millisecond
)

// releaseScript удаляет ключ только если он всё ещё принадлежит владельцу (token)
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker - распределённая блокировка по external reference через SET NX PX.
// TTL страхует от зависшего владельца: после истечения ключ освобождается сам.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLocker создаёт Redis locker
func NewLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Locker {
	return &Locker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func lockKey(key string) string {
	return keyPrefix + key
}

// Lock блокируется до захвата ключа или отмены ctx.
// Возвращённый release безопасно вызывать ровно один раз.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKey(key)
	token := uuid.NewString()

	ticker := time.NewTicker(retryBackoff)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx %s: %w", redisKey, err)
		}
		if ok {
			return func() { l.release(redisKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(redisKey, token string) {
	// Отдельный ctx: запрос мог уже истечь, а ключ надо отпустить
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	deleted, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		l.logger.Error("failed to release redis lock",
			zap.Error(err),
			zap.String("key", redisKey),
		)
		return
	}
	if deleted == 0 {
		l.logger.Warn("redis lock expired before release",
			zap.String("key", redisKey),
			zap.Duration("ttl", l.ttl),
		)
	}
}

// Ping проверяет соединение (для /health)
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
