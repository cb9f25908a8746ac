package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ContactService defines the behavior needed by ContactHandler.
type ContactService interface {
	CreateContact(ctx context.Context, input usecase.CreateContactInput) (*domain.Contact, error)
	UpdateOpeningBalance(ctx context.Context, input usecase.UpdateOpeningBalanceInput) (*domain.Contact, error)
	GetContact(ctx context.Context, id string) (*domain.Contact, error)
	ListContacts(ctx context.Context, companyID string, limit, offset int) ([]*domain.Contact, error)
}

// ContactHandler handles customer and vendor requests.
type ContactHandler struct {
	contactUC ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactUC ContactService) *ContactHandler {
	return &ContactHandler{contactUC: contactUC}
}

// Create stores a contact and posts its opening balance.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContactRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid contact", err.Error())
		return
	}

	contact, err := h.contactUC.CreateContact(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create contact", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ContactFromDomain(contact))
}

// UpdateOpeningBalance replaces a contact's opening balance.
func (h *ContactHandler) UpdateOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOpeningBalanceRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid opening balance", err.Error())
		return
	}

	contact, err := h.contactUC.UpdateOpeningBalance(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to update opening balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ContactFromDomain(contact))
}

// Get retrieves a contact by ID.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	contact, err := h.contactUC.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get contact", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ContactFromDomain(contact))
}

// List lists a company's contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID := companyParam(r)
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "missing company ID", "")
		return
	}
	limit, offset := pagination(r)

	contacts, err := h.contactUC.ListContacts(r.Context(), companyID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list contacts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewListResponse(contacts, dto.ContactFromDomain, limit, offset))
}
