// Package kv is the durable key-value storage behind carts, guest sessions,
// account sessions, site settings and the postal cache. Every entry is a
// single JSON document; concurrent writers are last-write-wins.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by every backend for a missing key.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Expiring is implemented by stores that can drop an entry after ttl.
// Every backend in this package implements it.
type Expiring interface {
	SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// GetJSON loads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// SetJSONTTL is SetJSON with an expiry. Stores without expiry support keep the
// entry until it is deleted.
func SetJSONTTL(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	e, ok := s.(Expiring)
	if !ok || ttl <= 0 {
		return SetJSON(ctx, s, key, v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return e.SetTTL(ctx, key, data, ttl)
}
