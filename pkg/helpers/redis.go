package helpers

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns the client behind the rate limiter. Limiter checks
// fail open, so a slow Redis must not hold up requests for long.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  time.Second,
		ReadTimeout:  250 * time.Millisecond,
		WriteTimeout: 250 * time.Millisecond,
		MaxRetries:   1,
	})
}
