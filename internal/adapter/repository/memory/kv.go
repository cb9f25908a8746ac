package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

type kvItem struct {
	value     []byte
	expiresAt time.Time
}

// KV is an expiring key-value store that stands in for Redis when the
// service runs without it. It implements the cache port directly;
// IdempotencyStore and RecordLockStore share its keyspace.
type KV struct {
	mu    sync.Mutex
	items map[string]kvItem
	now   func() time.Time
}

// NewKV creates an empty KV.
func NewKV() *KV {
	return &KV{items: make(map[string]kvItem), now: time.Now}
}

func (kv *KV) get(key string) ([]byte, bool) {
	item, ok := kv.items[key]
	if !ok {
		return nil, false
	}
	if !item.expiresAt.IsZero() && !kv.now().Before(item.expiresAt) {
		delete(kv.items, key)
		return nil, false
	}
	return item.value, true
}

func (kv *KV) set(key string, value []byte, ttl time.Duration) {
	item := kvItem{value: value}
	if ttl > 0 {
		item.expiresAt = kv.now().Add(ttl)
	}
	kv.items[key] = item
}

// Get implements usecase.Cache.
func (kv *KV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.get(key)
	if !ok {
		return "", usecase.ErrCacheMiss
	}
	return string(v), nil
}

// Set implements usecase.Cache.
func (kv *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.set(key, []byte(value), ttl)
	return nil
}

// Delete implements usecase.Cache.
func (kv *KV) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.items, key)
	return nil
}

// IdempotencyStore keeps idempotency keys in a KV.
type IdempotencyStore struct {
	kv *KV
}

// NewIdempotencyStore creates an IdempotencyStore over kv.
func NewIdempotencyStore(kv *KV) *IdempotencyStore {
	return &IdempotencyStore{kv: kv}
}

// CheckAndSet stores response under key unless the key already exists, in
// which case the stored value is returned.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	if v, ok := s.kv.get("idempotency:" + key); ok {
		return true, v, nil
	}
	s.kv.set("idempotency:"+key, response, ttl)
	return false, nil, nil
}

// Update overwrites the stored response of key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	s.kv.set("idempotency:"+key, response, ttl)
	return nil
}

// Release forgets key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	delete(s.kv.items, "idempotency:"+key)
	return nil
}

// RecordLockStore keeps advisory record locks in a KV.
type RecordLockStore struct {
	kv *KV
}

// NewRecordLockStore creates a RecordLockStore over kv.
func NewRecordLockStore(kv *KV) *RecordLockStore {
	return &RecordLockStore{kv: kv}
}

// Acquire takes the lock or extends it when the owner already holds it.
func (s *RecordLockStore) Acquire(ctx context.Context, lock domain.RecordLock, ttl time.Duration) (bool, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	key := "lock:" + lock.Key()
	if owner, ok := s.kv.get(key); ok && string(owner) != lock.Owner {
		return false, nil
	}
	s.kv.set(key, []byte(lock.Owner), ttl)
	return true, nil
}

// Release drops the lock if owner holds it.
func (s *RecordLockStore) Release(ctx context.Context, resource, id, owner string) (bool, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	key := "lock:" + domain.LockKey(resource, id)
	if current, ok := s.kv.get(key); !ok || string(current) != owner {
		return false, nil
	}
	delete(s.kv.items, key)
	return true, nil
}

// Holder returns the lock owner, or "".
func (s *RecordLockStore) Holder(ctx context.Context, resource, id string) (string, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()
	owner, _ := s.kv.get("lock:" + domain.LockKey(resource, id))
	return string(owner), nil
}
