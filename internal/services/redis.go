package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const (
	tripStatusTTL       = 24 * time.Hour
	reservationCountTTL = time.Hour
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheTripStatus stores the last known status of a trip
func CacheTripStatus(ctx context.Context, tripID uint, status string) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("trip:status:%d", tripID)
	return RedisClient.Set(ctx, key, status, tripStatusTTL).Err()
}

// CachedTripStatus retrieves the last known status of a trip
func CachedTripStatus(ctx context.Context, tripID uint) (string, error) {
	if RedisClient == nil {
		return "", redis.Nil
	}
	key := fmt.Sprintf("trip:status:%d", tripID)
	return RedisClient.Get(ctx, key).Result()
}

// CacheReservationCount stores the reservation count for a driver
func CacheReservationCount(ctx context.Context, driverID uint, count int64) error {
	if RedisClient == nil {
		return nil
	}
	key := fmt.Sprintf("driver:reservations:%d", driverID)
	return RedisClient.Set(ctx, key, count, reservationCountTTL).Err()
}

// CachedReservationCount retrieves the cached reservation count for a driver
func CachedReservationCount(ctx context.Context, driverID uint) (int64, error) {
	if RedisClient == nil {
		return 0, redis.Nil
	}
	key := fmt.Sprintf("driver:reservations:%d", driverID)
	result, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(result, 10, 64)
}
