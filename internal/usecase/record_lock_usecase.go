package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/erpledger/internal/domain"
)

var lockableResources = map[string]bool{
	ResourcePayment:      true,
	ResourceInvoice:      true,
	ResourceBill:         true,
	ResourceContact:      true,
	ResourceJournalEntry: true,
}

// RecordLockUseCase hands out advisory edit locks so two users do not edit
// the same document at once.
type RecordLockUseCase struct {
	store RecordLockStore
	ttl   time.Duration
}

// NewRecordLockUseCase creates a new RecordLockUseCase.
func NewRecordLockUseCase(store RecordLockStore, ttl time.Duration) *RecordLockUseCase {
	if ttl <= 0 {
		ttl = DefaultRecordLockTTL
	}
	return &RecordLockUseCase{store: store, ttl: ttl}
}

// Acquire takes the lock on resource/id for the acting user. Holding the
// lock already extends it.
func (uc *RecordLockUseCase) Acquire(ctx context.Context, resource, id string) (*domain.RecordLock, error) {
	if err := validateLockTarget(resource, id); err != nil {
		return nil, err
	}

	lock := domain.RecordLock{
		Resource:  resource,
		ID:        id,
		Owner:     domain.ActorID(ctx),
		ExpiresAt: time.Now().UTC().Add(uc.ttl),
	}

	ok, err := uc.store.Acquire(ctx, lock, uc.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		holder, herr := uc.store.Holder(ctx, resource, id)
		if herr != nil {
			return nil, domain.ErrRecordLocked
		}
		return nil, fmt.Errorf("%w: held by %s", domain.ErrRecordLocked, holder)
	}

	return &lock, nil
}

// Release drops the acting user's lock on resource/id.
func (uc *RecordLockUseCase) Release(ctx context.Context, resource, id string) error {
	if err := validateLockTarget(resource, id); err != nil {
		return err
	}

	ok, err := uc.store.Release(ctx, resource, id, domain.ActorID(ctx))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrLockNotHeld
	}
	return nil
}

// Holder returns the owner of the lock on resource/id, or "".
func (uc *RecordLockUseCase) Holder(ctx context.Context, resource, id string) (string, error) {
	if err := validateLockTarget(resource, id); err != nil {
		return "", err
	}
	return uc.store.Holder(ctx, resource, id)
}

func validateLockTarget(resource, id string) error {
	if !lockableResources[resource] || id == "" {
		return fmt.Errorf("%w: %s/%s", domain.ErrInvalidLockTarget, resource, id)
	}
	return nil
}
