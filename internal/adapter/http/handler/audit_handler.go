package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
)

// AuditLister defines the audit log query used by AuditHandler.
type AuditLister interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	audit AuditLister
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit AuditLister) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit logs filtered by user_id, action, resource_type,
// resource_id, from and to.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := pagination(r)

	filter := domain.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        limit,
		Offset:       offset,
	}

	from, err := parseDateQuery(r, "from", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}
	if !from.IsZero() {
		filter.StartDate = &from
	}

	to, err := parseDateQuery(r, "to", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}
	if !to.IsZero() {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	logs, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(logs, dto.AuditLogFromDomain, limit, offset))
}
