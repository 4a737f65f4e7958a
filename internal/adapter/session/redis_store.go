package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/fixboard/fixboard/internal/domain"
	"github.com/fixboard/fixboard/internal/logger"
	"github.com/fixboard/fixboard/internal/ports"
)

// RedisStore reads the operator's bearer credential from a shared
// session store. The credential is written there by the authentication
// front end; this process only ever reads it.
type RedisStore struct {
	client *redis.Client
	key    string
	log    logger.Logger
}

var _ ports.CredentialStore = (*RedisStore)(nil)

// NewRedisStore connects to redis and verifies the connection
func NewRedisStore(redisURL, key string, log logger.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info(ctx, "session store connected", map[string]interface{}{
		"key": key,
	})

	return &RedisStore{
		client: client,
		key:    key,
		log:    log,
	}, nil
}

// Token returns the stored credential, or domain.ErrNotAuthenticated
// when the session holds none
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", domain.ErrNotAuthenticated
	}
	if err != nil {
		return "", domain.WrapEngineError(domain.ErrCodeUnauthorized, err, "session lookup failed")
	}
	if val == "" {
		return "", domain.ErrNotAuthenticated
	}
	return val, nil
}

// Close releases the redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
