// Package kvstore holds short-lived values shared across requests: the
// Microsoft bearer token, the last provider error and the set of posts
// still waiting for language detection.
package kvstore

import (
	"context"
	"time"
)

// Store is the subset of key-value and set commands the translator needs.
// Get returns ok == false for missing or expired keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	SAdd(ctx context.Context, key string, members ...string) error
	SPopN(ctx context.Context, key string, count int) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)

	Close() error
}
