package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON loads key and decodes it into T. A nil store behaves as a miss.
func GetJSON[T any](ctx context.Context, store Store, key string) (*T, error) {
	if store == nil {
		return nil, ErrCacheMiss
	}
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetJSON encodes value and stores it under key. A nil store or value is a no-op.
func SetJSON[T any](ctx context.Context, store Store, key string, value *T, ttl time.Duration) error {
	if store == nil || value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, raw, ttl)
}
