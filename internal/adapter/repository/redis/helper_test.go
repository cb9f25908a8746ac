package redis

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	"github.com/iho/erpledger/internal/domain"
)

// newTestRedisClient starts a miniredis server and connects a client to it.
// Callers close both.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

// keysWithPrefix lists the keys under prefix in sorted order.
func keysWithPrefix(mr *miniredis.Miniredis, prefix string) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestStores_SeparateKeyspacesOnOneClient(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client)
	idem := NewIdempotencyStore(client)
	locks := NewRecordLockStore(client)

	if err := cache.Set(ctx, "invoice:inv-1", "cached", time.Minute); err != nil {
		t.Fatalf("cache set: %v", err)
	}
	if exists, _, err := idem.CheckAndSet(ctx, "invoice:inv-1", []byte("pending"), time.Minute); err != nil || exists {
		t.Fatalf("expected idempotency key to be free, exists=%v err=%v", exists, err)
	}
	if ok, err := locks.Acquire(ctx, domain.RecordLock{Resource: "invoice", ID: "inv-1", Owner: "alice"}, time.Minute); err != nil || !ok {
		t.Fatalf("expected lock to be free, ok=%v err=%v", ok, err)
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "cache:", want: []string{"cache:invoice:inv-1"}},
		{prefix: "idempotency:", want: []string{"idempotency:invoice:inv-1"}},
		{prefix: "lock:", want: []string{"lock:invoice:inv-1"}},
	}
	for _, tt := range tests {
		got := keysWithPrefix(mr, tt.prefix)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Fatalf("keys under %q: expected %v, got %v", tt.prefix, tt.want, got)
		}
	}

	if err := idem.Release(ctx, "invoice:inv-1"); err != nil {
		t.Fatalf("release idempotency key: %v", err)
	}
	if holder, err := locks.Holder(ctx, "invoice", "inv-1"); err != nil || holder != "alice" {
		t.Fatalf("expected lock to survive idempotency release, holder=%q err=%v", holder, err)
	}
	if v, err := cache.Get(ctx, "invoice:inv-1"); err != nil || v != "cached" {
		t.Fatalf("expected cache entry to survive, got %q err=%v", v, err)
	}
}
