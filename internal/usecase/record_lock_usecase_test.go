package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
	"github.com/iho/erpledger/internal/usecase/mocks"
)

func TestRecordLock_Acquire(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordLockStore(ctrl)
	store.EXPECT().
		Acquire(gomock.Any(), gomock.Any(), 2*time.Minute).
		DoAndReturn(func(_ context.Context, lock domain.RecordLock, _ time.Duration) (bool, error) {
			assert.Equal(t, usecase.ResourcePayment, lock.Resource)
			assert.Equal(t, "pay-1", lock.ID)
			assert.Equal(t, "alice", lock.Owner)
			return true, nil
		})

	uc := usecase.NewRecordLockUseCase(store, 2*time.Minute)
	lock, err := uc.Acquire(asUser("alice"), usecase.ResourcePayment, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", lock.Owner)
	assert.True(t, lock.ExpiresAt.After(time.Now()))
}

func TestRecordLock_AcquireHeldByOther(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordLockStore(ctrl)
	store.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
	store.EXPECT().Holder(gomock.Any(), usecase.ResourceInvoice, "inv-1").Return("alice", nil)

	uc := usecase.NewRecordLockUseCase(store, 0)
	_, err := uc.Acquire(asUser("bob"), usecase.ResourceInvoice, "inv-1")
	require.ErrorIs(t, err, domain.ErrRecordLocked)
	assert.Contains(t, err.Error(), "alice")
}

func TestRecordLock_StoreErrorSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordLockStore(ctrl)
	down := errors.New("redis down")
	store.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, down)

	uc := usecase.NewRecordLockUseCase(store, time.Minute)
	_, err := uc.Acquire(asUser("bob"), usecase.ResourceContact, "c-1")
	require.ErrorIs(t, err, down)
}

func TestRecordLock_InvalidTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := usecase.NewRecordLockUseCase(mocks.NewMockRecordLockStore(ctrl), time.Minute)
	ctx := asUser("alice")

	_, err := uc.Acquire(ctx, "account", "a-1")
	require.ErrorIs(t, err, domain.ErrInvalidLockTarget)

	_, err = uc.Acquire(ctx, usecase.ResourceBill, "")
	require.ErrorIs(t, err, domain.ErrInvalidLockTarget)

	require.ErrorIs(t, uc.Release(ctx, "company", "x"), domain.ErrInvalidLockTarget)

	_, err = uc.Holder(ctx, "", "x")
	require.ErrorIs(t, err, domain.ErrInvalidLockTarget)
}

func TestRecordLock_Release(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordLockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().Release(gomock.Any(), usecase.ResourceJournalEntry, "je-1", "alice").Return(true, nil),
		store.EXPECT().Release(gomock.Any(), usecase.ResourceJournalEntry, "je-1", "bob").Return(false, nil),
	)

	uc := usecase.NewRecordLockUseCase(store, time.Minute)
	require.NoError(t, uc.Release(asUser("alice"), usecase.ResourceJournalEntry, "je-1"))
	require.ErrorIs(t, uc.Release(asUser("bob"), usecase.ResourceJournalEntry, "je-1"), domain.ErrLockNotHeld)
}

func TestRecordLock_Holder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecordLockStore(ctrl)
	store.EXPECT().Holder(gomock.Any(), usecase.ResourcePayment, "pay-1").Return("carol", nil)

	uc := usecase.NewRecordLockUseCase(store, time.Minute)
	holder, err := uc.Holder(context.Background(), usecase.ResourcePayment, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "carol", holder)
}
