package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-history-api/internal/config"
	redisv9 "github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// NewClient connects to the redis server configured for the history store and
// verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.StoreConfig) (*redisv9.Client, error) {
	client := redisv9.NewClient(&redisv9.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}
