package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/usecase"
)

// ConsistencyChecker defines the behavior needed for the ledger-wide check.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyResult, error)
}

// Reconciler defines the behavior needed for balance reconciliation.
type Reconciler interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	GenerateReconciliationReport(ctx context.Context, companyID string) (*usecase.ReconciliationReport, error)
}

// LedgerHandler handles ledger-wide checks.
type LedgerHandler struct {
	ledgerUC    ConsistencyChecker
	reconcileUC Reconciler
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC ConsistencyChecker, reconcileUC Reconciler) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, reconcileUC: reconcileUC}
}

// CheckConsistency checks that all journal lines balance.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil && !errors.Is(err, usecase.ErrInconsistentLedger) {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	resp := dto.ConsistencyResponse{
		Status:       "consistent",
		Consistent:   result.Consistent,
		TotalDebits:  result.TotalDebits,
		TotalCredits: result.TotalCredits,
	}
	if !result.Consistent {
		resp.Status = "inconsistent"
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ReconcileAccount compares an account's stored balance with its lines.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileUC.ReconcileAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// ReconcileCompany reconciles every account of a company.
func (h *LedgerHandler) ReconcileCompany(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.GenerateReconciliationReport(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, "failed to reconcile company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
