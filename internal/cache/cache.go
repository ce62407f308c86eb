// Package cache keeps computed reports in Redis. Keys carry a per-owner
// version that is bumped on every committed write, so stale entries are
// never read and simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bookkeeper"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(client, ttl), nil
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func versionKey(ownerID string) string {
	return keyPrefix + ":version:" + ownerID
}

// Version returns the owner's current cache version, starting at 1.
func (c *Cache) Version(ctx context.Context, ownerID string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(ownerID), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(ownerID)).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes a report key under the owner's current version.
func (c *Cache) Key(ctx context.Context, ownerID string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, ownerID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, ownerID, ver, strings.Join(parts, ":")), nil
}

// FetchJSON decodes the cached value at key into dest, or runs loader,
// stores its result and decodes that. A nil cache always runs loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached report of the owner.
func (c *Cache) Bump(ctx context.Context, ownerID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(ownerID)).Err()
}
