package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
)

// RecordLockService defines the behavior needed by LockHandler.
type RecordLockService interface {
	Acquire(ctx context.Context, resource, id string) (*domain.RecordLock, error)
	Release(ctx context.Context, resource, id string) error
	Holder(ctx context.Context, resource, id string) (string, error)
}

// LockHandler exposes advisory edit locks at /locks/{resource}/{id}.
type LockHandler struct {
	locks RecordLockService
}

// NewLockHandler creates a new LockHandler.
func NewLockHandler(locks RecordLockService) *LockHandler {
	return &LockHandler{locks: locks}
}

// Acquire takes or renews the caller's lock.
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	lock, err := h.locks.Acquire(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to acquire lock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordLockFromDomain(lock))
}

// Release drops the caller's lock.
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	if err := h.locks.Release(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to release lock", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get reports who holds a lock.
func (h *LockHandler) Get(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")

	owner, err := h.locks.Holder(r.Context(), resource, id)
	if err != nil {
		writeDomainError(w, "failed to read lock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecordLockResponse{
		Resource: resource,
		ID:       id,
		Owner:    owner,
		Locked:   owner != "",
	})
}
