package synclock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a crashed holder can block a key
const DefaultTTL = 10 * time.Minute

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance using the same Redis
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewRedisLocker creates a Redis-backed Locker
func NewRedisLocker(client redis.UniversalClient, keyPrefix string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "mailsync:lock:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

// NewRedisClient parses a redis:// URL and checks the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// TryLock sets key with SET NX and a random token
func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be done
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock",
					slog.String("key", fullKey),
					slog.Any("error", err))
			}
		})
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
