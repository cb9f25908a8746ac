package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	CreatePayment(ctx context.Context, input usecase.CreatePaymentInput) (*domain.Payment, error)
	EditPayment(ctx context.Context, input usecase.EditPaymentInput) (*domain.Payment, error)
	VoidPayment(ctx context.Context, id string, expectedVersion *int64) (*domain.Payment, error)
	DeletePayment(ctx context.Context, id string) error
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, companyID string, limit, offset int) ([]*domain.Payment, error)
}

// PaymentHandler handles payment requests.
type PaymentHandler struct {
	paymentUC PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC}
}

// Create records a payment and posts it.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment", err.Error())
		return
	}

	payment, err := h.paymentUC.CreatePayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// Update replaces a payment, reposting its journal entry.
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.EditPaymentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment", err.Error())
		return
	}

	payment, err := h.paymentUC.EditPayment(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to update payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Void reverses a payment and unwinds its settlement.
func (h *PaymentHandler) Void(w http.ResponseWriter, r *http.Request) {
	var req dto.VoidRequest
	if !decodeOptionalRequest(w, r, &req) {
		return
	}

	payment, err := h.paymentUC.VoidPayment(r.Context(), chi.URLParam(r, "id"), req.ExpectedVersion)
	if err != nil {
		writeDomainError(w, "failed to void payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// Delete removes a void payment.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.paymentUC.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete payment", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a payment by ID.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentUC.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// List lists a company's payments.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "missing company ID", "")
		return
	}
	limit, offset := pagination(r)

	payments, err := h.paymentUC.ListPayments(r.Context(), companyID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(payments, dto.PaymentFromDomain, limit, offset))
}
