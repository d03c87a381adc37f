package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const companyKeyPrefix = "workforce:company:"

// KV is the slice of the Redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// NewRedisClient connects to a single Redis node and pings it.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// CompanyDirectory caches company lookups by name. Redis failures degrade to
// the wrapped directory, and misses are never cached.
type CompanyDirectory struct {
	next company.Directory
	kv   KV
	ttl  time.Duration
}

func NewCompanyDirectory(next company.Directory, kv KV, ttl time.Duration) company.Directory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CompanyDirectory{next: next, kv: kv, ttl: ttl}
}

func companyKey(name string) string {
	return companyKeyPrefix + strings.ToLower(strings.TrimSpace(name))
}

// FindByName implements company.Directory.
func (d *CompanyDirectory) FindByName(ctx context.Context, name string) (company.Company, error) {
	key := companyKey(name)

	raw, err := d.kv.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached company.Company
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			metrics.RecordCacheLookup(true)
			return cached, nil
		}
		slog.Warn("Discarding corrupt company cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("Company cache unavailable", "error", err)
	}
	metrics.RecordCacheLookup(false)

	found, err := d.next.FindByName(ctx, name)
	if err != nil {
		return company.Company{}, err
	}

	payload, err := json.Marshal(found)
	if err == nil {
		err = d.kv.Set(ctx, key, payload, d.ttl).Err()
	}
	if err != nil {
		slog.Warn("Failed to cache company", "key", key, "error", err)
	}

	return found, nil
}
