// Package cache provides the Redis-backed domain cache for timestamp and
// timezone lookups. It is a collaborator of the resilience core, not part
// of it: the in-process last-known-good fallback cache lives with the
// fallback executor.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
	"github.com/iwangdonghui/tsconv-sub005/internal/metrics"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// Client wraps Redis operations for domain lookups.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks connectivity, for health probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
func timezoneKey(name string) string {
	return fmt.Sprintf("tz:%s", name)
}

func conversionKey(id string) string {
	return fmt.Sprintf("conv:%s", id)
}

// GetTimezone returns cached timezone metadata, if present.
func (c *Client) GetTimezone(ctx context.Context, name string) (*domain.TimezoneInfo, bool, error) {
	var info domain.TimezoneInfo
	ok, err := c.get(ctx, timezoneKey(name), &info)
	return &info, ok, err
}

// SetTimezone caches timezone metadata.
func (c *Client) SetTimezone(ctx context.Context, name string, info *domain.TimezoneInfo) error {
	return c.set(ctx, timezoneKey(name), info)
}

// GetConversion returns a cached conversion result, if present.
func (c *Client) GetConversion(ctx context.Context, id string) (*domain.ConversionResult, bool, error) {
	var result domain.ConversionResult
	ok, err := c.get(ctx, conversionKey(id), &result)
	return &result, ok, err
}

// SetConversion caches a conversion result.
func (c *Client) SetConversion(ctx context.Context, id string, result *domain.ConversionResult) error {
	return c.set(ctx, conversionKey(id), result)
}

func (c *Client) get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, domain.WrapError(domain.CategoryCache, "redis get failed", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, domain.WrapError(domain.CategoryCache, "cache entry decode failed", err)
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

func (c *Client) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.WrapError(domain.CategoryCache, "cache entry encode failed", err)
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return domain.WrapError(domain.CategoryCache, "redis set failed", err)
	}
	return nil
}
