// Package db defines the key-value store abstraction used for caching.
package db

import (
	"context"
	"time"
)

// Store is the key-value store contract implemented by the redis subpackage.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}
