package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/course-planner-api/pkg/config"
)

const pingTimeout = 5 * time.Second

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "planner"

// NewRedis returns a Redis client that answered a ping.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return client, nil
}

// Key joins parts under KeyPrefix, e.g. Key("catalog", "2025FA", "CS101").
func Key(parts ...string) string {
	return KeyPrefix + ":" + strings.Join(parts, ":")
}
