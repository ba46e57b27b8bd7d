package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/scanpay/backend/internal/config"
)

// InitRedis connects the cache. Redis is optional: a failed connection
// returns nil and the service runs uncached.
func InitRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] Connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("[REDIS] Connection established")
	return rdb
}
