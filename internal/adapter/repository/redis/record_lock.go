package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/erpledger/internal/domain"
)

// acquireScript sets the lock when it is free or already held by the same
// owner, refreshing the TTL.
var acquireScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false or current == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes the lock only when owner holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RecordLockStore implements usecase.RecordLockStore using Redis.
type RecordLockStore struct {
	client *redis.Client
	prefix string
}

// NewRecordLockStore creates a new RecordLockStore.
func NewRecordLockStore(client *redis.Client) *RecordLockStore {
	return &RecordLockStore{
		client: client,
		prefix: "lock:",
	}
}

// Acquire takes the lock or extends it when the owner already holds it.
func (s *RecordLockStore) Acquire(ctx context.Context, lock domain.RecordLock, ttl time.Duration) (bool, error) {
	res, err := acquireScript.Run(ctx, s.client, []string{s.prefix + lock.Key()}, lock.Owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Release drops the lock if owner holds it.
func (s *RecordLockStore) Release(ctx context.Context, resource, id, owner string) (bool, error) {
	res, err := releaseScript.Run(ctx, s.client, []string{s.prefix + domain.LockKey(resource, id)}, owner).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Holder returns the current owner, or "" when unlocked.
func (s *RecordLockStore) Holder(ctx context.Context, resource, id string) (string, error) {
	owner, err := s.client.Get(ctx, s.prefix+domain.LockKey(resource, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return owner, err
}
