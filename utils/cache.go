// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"medtriage/config"
)

// SessionCacheClient caches completed pipeline results keyed by session id.
var SessionCacheClient *redis.Client

// InitSessionCache initializes the Redis client for pipeline session caching.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the session cache client.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// SessionCacheTTL returns the configured TTL for cached pipeline results.
func SessionCacheTTL() time.Duration {
	mins := config.AppConfig.SessionCacheTTLMins
	if mins <= 0 {
		mins = 30
	}
	return time.Duration(mins) * time.Minute
}
