// Package cache provides the key/value stores backing the permission and
// company lookups: Redis in deployments, an in-memory map for single
// instances and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Store is a byte oriented key/value cache with per-key expiry
type Store interface {
	// Get returns the cached value; found is false on a miss
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrCorruptEntry reports a cached value that could not be decoded
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// GetJSON decodes the value stored under key into dst. A value that does
// not decode is deleted and reported as a miss.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if delErr := s.Delete(ctx, key); delErr != nil {
			return false, errors.Join(ErrCorruptEntry, delErr)
		}
		return false, nil
	}
	return true, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}

// LoadJSON returns the cached value under key, or calls load and caches
// its result. Cache failures are logged and never fail the lookup.
func LoadJSON[T any](ctx context.Context, s Store, log *zap.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if s != nil {
		hit, err := GetJSON(ctx, s, key, &cached)
		if err != nil {
			log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if s != nil {
		if err := SetJSON(ctx, s, key, value, ttl); err != nil {
			log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}
