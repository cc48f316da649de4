package services

import (
	"context"
	"time"

	"rapidaid/pkg/cache"
)

// CacheService is the cache surface the repositories and services depend on.
// *cache.RedisCache satisfies it; tests substitute an in-memory fake.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	// Geo set operations backing the fleet location index
	GeoAdd(ctx context.Context, key, member string, longitude, latitude float64) error
	GeoSearch(ctx context.Context, key string, longitude, latitude, radiusKM float64) ([]cache.GeoMember, error)
	GeoRemove(ctx context.Context, key, member string) error

	// Pub/sub backing the live tracking fan-out
	Publish(ctx context.Context, channel string, message interface{}) error

	Ping(ctx context.Context) error
}
