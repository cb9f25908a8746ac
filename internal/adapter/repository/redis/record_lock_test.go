package redis

import (
	"context"
	"testing"
	"time"

	"github.com/iho/erpledger/internal/domain"
)

func TestRecordLockStore_AcquireAndExtend(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRecordLockStore(client)
	ctx := context.Background()
	lock := domain.RecordLock{Resource: "invoice", ID: "inv-1", Owner: "alice"}

	ok, err := store.Acquire(ctx, lock, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}

	mr.FastForward(30 * time.Second)

	ok, err = store.Acquire(ctx, lock, 2*time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected owner to extend, got ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("lock:invoice:inv-1"); ttl != 2*time.Minute {
		t.Fatalf("expected TTL refreshed to 2m, got %s", ttl)
	}

	other := domain.RecordLock{Resource: "invoice", ID: "inv-1", Owner: "bob"}
	ok, err = store.Acquire(ctx, other, time.Minute)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if ok {
		t.Fatalf("expected bob to be refused while alice holds the lock")
	}

	holder, err := store.Holder(ctx, "invoice", "inv-1")
	if err != nil || holder != "alice" {
		t.Fatalf("expected alice to hold the lock, got %q err=%v", holder, err)
	}
}

func TestRecordLockStore_ExpiredLockIsFree(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRecordLockStore(client)
	ctx := context.Background()

	if _, err := store.Acquire(ctx, domain.RecordLock{Resource: "bill", ID: "b-1", Owner: "alice"}, time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	ok, err := store.Acquire(ctx, domain.RecordLock{Resource: "bill", ID: "b-1", Owner: "bob"}, time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected expired lock to be taken, got ok=%v err=%v", ok, err)
	}
}

func TestRecordLockStore_ReleaseOnlyByOwner(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	store := NewRecordLockStore(client)
	ctx := context.Background()

	if _, err := store.Acquire(ctx, domain.RecordLock{Resource: "payment", ID: "p-1", Owner: "alice"}, time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	released, err := store.Release(ctx, "payment", "p-1", "bob")
	if err != nil || released {
		t.Fatalf("expected bob's release to be ignored, got released=%v err=%v", released, err)
	}

	released, err = store.Release(ctx, "payment", "p-1", "alice")
	if err != nil || !released {
		t.Fatalf("expected alice to release, got released=%v err=%v", released, err)
	}

	holder, err := store.Holder(ctx, "payment", "p-1")
	if err != nil || holder != "" {
		t.Fatalf("expected no holder, got %q err=%v", holder, err)
	}
}
