package redis

import (
	"context"
	"fmt"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

// Connect opens a client for settings and checks it answers PING
func Connect(ctx context.Context, settings config.RedisSettings) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", settings.Addr, err)
	}
	return client, nil
}
