package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/maneesh/lumina/internal/models"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lumina-storage")

const (
	// CacheTTL is the time-to-live for cached asset pages (5 minutes)
	CacheTTL = 5 * time.Minute

	// assetsVersionKey holds the monotonic cache version counter.
	// Bumping it makes every previously computed page key unreachable;
	// stale entries simply age out via TTL.
	assetsVersionKey = "lumina:assets:version"
)

// RedisCache wraps the versioned asset page cache with tracing.
// It is a pure optimization over the store: every operation swallows
// backend failures so readers degrade to direct store queries.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache initializes a new Redis cache client
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test the connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Ping verifies cache connectivity for health checks
func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Version returns the current cache version counter, "0" when unset
// or unreachable.
func (rc *RedisCache) Version(ctx context.Context) string {
	ctx, span := tracer.Start(ctx, "redis.cache_version")
	defer span.End()

	v, err := rc.client.Get(ctx, assetsVersionKey).Result()
	if err == redis.Nil {
		return "0"
	} else if err != nil {
		span.RecordError(err)
		log.Printf("Redis version read failed: %v", err)
		return "0"
	}
	span.SetAttributes(attribute.String("cache_version", v))
	return v
}

// Invalidate bumps the cache version counter, unreachably orphaning
// every cached page in O(1).
func (rc *RedisCache) Invalidate(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "redis.invalidate_assets")
	defer span.End()

	v, err := rc.client.Incr(ctx, assetsVersionKey).Result()
	if err != nil {
		span.RecordError(err)
		log.Printf("Warning: Redis cache invalidation failed: %v", err)
		return
	}
	span.SetAttributes(attribute.Int64("cache_version", v))
}

// GetPage retrieves a cached asset page by fingerprint. A miss or any
// backend failure returns (nil, false).
func (rc *RedisCache) GetPage(ctx context.Context, key string) (*models.AssetPage, bool) {
	ctx, span := tracer.Start(ctx, "redis.get_page",
		trace.WithAttributes(attribute.String("cache_key", key)),
	)
	defer span.End()

	data, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return nil, false
	} else if err != nil {
		span.RecordError(err)
		log.Printf("Redis get failed: %v", err)
		return nil, false
	}

	var page models.AssetPage
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		span.RecordError(err)
		log.Printf("Redis entry decode failed: %v", err)
		return nil, false
	}

	span.SetAttributes(attribute.Bool("cache_hit", true))
	return &page, true
}

// SetPage stores an asset page under its fingerprint with the TTL.
// Failures are logged only; the page was already served from the store.
func (rc *RedisCache) SetPage(ctx context.Context, key string, page *models.AssetPage) {
	ctx, span := tracer.Start(ctx, "redis.set_page",
		trace.WithAttributes(
			attribute.String("cache_key", key),
			attribute.Int("asset_count", len(page.Assets)),
		),
	)
	defer span.End()

	data, err := json.Marshal(page)
	if err != nil {
		span.RecordError(err)
		log.Printf("Redis entry encode failed: %v", err)
		return
	}
	if err := rc.client.Set(ctx, key, data, CacheTTL).Err(); err != nil {
		span.RecordError(err)
		log.Printf("Redis set failed: %v", err)
		return
	}
	span.SetAttributes(attribute.Int64("ttl_seconds", int64(CacheTTL.Seconds())))
}
