package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/listing-comb/app/listing"
)

// Entry is a successful scrape kept to save proxy credits on repeated requests
type Entry struct {
	Listing  listing.Listing `json:"listing"`
	FinalURL string          `json:"final_url"`
	CachedAt time.Time       `json:"cached_at"`
}

type ListingCache interface {
	GetListing(ctx context.Context, sourceURL string) (*Entry, bool, error)
	SetListing(ctx context.Context, sourceURL string, entry Entry) error
	DeleteListing(ctx context.Context, sourceURL string) error
	Health(ctx context.Context) map[string]any
	Close() error
}

// Cache wraps Redis client for scrape result caching
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr, "ttl", ttl)

	return &Cache{client: client, ttl: ttl}, nil
}

// ListingKey generates a consistent cache key for a listing URL
func ListingKey(sourceURL string) string {
	hash := sha256.Sum256([]byte(sourceURL))
	return fmt.Sprintf("listing:%x", hash[:8])
}

// GetListing treats undecodable entries as a miss and removes them
func (c *Cache) GetListing(ctx context.Context, sourceURL string) (*Entry, bool, error) {
	key := ListingKey(sourceURL)

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	return &entry, true, nil
}

func (c *Cache) SetListing(ctx context.Context, sourceURL string, entry Entry) error {
	key := ListingKey(sourceURL)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) DeleteListing(ctx context.Context, sourceURL string) error {
	key := ListingKey(sourceURL)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Health(ctx context.Context) map[string]any {
	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if dbSize, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = dbSize
	}

	return health
}

func (c *Cache) Close() error {
	return c.client.Close()
}
