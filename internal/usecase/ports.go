package usecase

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/iho/erpledger/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release frees a key whose request failed so it can be retried.
	Release(ctx context.Context, key string) error
}

// RecordLockStore holds advisory edit locks on documents.
type RecordLockStore interface {
	// Acquire takes the lock or extends it when owner already holds it.
	Acquire(ctx context.Context, lock domain.RecordLock, ttl time.Duration) (bool, error)
	// Release drops the lock if owner holds it.
	Release(ctx context.Context, resource, id, owner string) (bool, error)
	// Holder returns the current owner, or "" when unlocked.
	Holder(ctx context.Context, resource, id string) (string, error)
}
