package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	CreateManualEntry(ctx context.Context, input usecase.CreateManualEntryInput) (*domain.JournalEntry, error)
	ReverseEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, companyID string, limit, offset int) ([]*domain.JournalEntry, error)
	ListAccountLines(ctx context.Context, accountID string, limit, offset int) ([]*domain.JournalLine, error)
	TrialBalance(ctx context.Context, companyID string, asOf time.Time) (*usecase.TrialBalance, error)
}

// JournalHandler handles journal entry requests.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Create posts a manual journal entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateJournalEntryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid journal entry", err.Error())
		return
	}

	entry, err := h.journalUC.CreateManualEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Get retrieves a journal entry with its lines.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalUC.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Reverse posts the reversal of a manual entry.
func (h *JournalHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	reversal, err := h.journalUC.ReverseEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reverse journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(reversal))
}

// List lists a company's journal entries, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "missing company ID", "")
		return
	}
	limit, offset := pagination(r)

	entries, err := h.journalUC.ListEntries(r.Context(), companyID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list journal entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(entries, dto.JournalEntryFromDomain, limit, offset))
}

// ListAccountLines lists the journal lines posted to an account in posting
// order, with the running balance after each line.
func (h *JournalHandler) ListAccountLines(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	lines, err := h.journalUC.ListAccountLines(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list account lines", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(lines, dto.JournalLineFromDomain, limit, offset))
}

// TrialBalance returns per-account totals up to the as_of date (today by
// default).
func (h *JournalHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err.Error())
		return
	}

	tb, err := h.journalUC.TrialBalance(r.Context(), chi.URLParam(r, "companyID"), asOf)
	if err != nil {
		writeDomainError(w, "failed to build trial balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TrialBalanceFromUseCase(tb))
}
