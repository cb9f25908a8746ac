package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// CompanyService defines the behavior needed by CompanyHandler.
type CompanyService interface {
	CreateCompany(ctx context.Context, input usecase.CreateCompanyInput) (*domain.Company, error)
	GetCompany(ctx context.Context, id string) (*domain.Company, error)
}

// CompanyHandler handles company requests.
type CompanyHandler struct {
	companyUC CompanyService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyUC CompanyService) *CompanyHandler {
	return &CompanyHandler{companyUC: companyUC}
}

// Create creates a company.
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCompanyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	company, err := h.companyUC.CreateCompany(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create company", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CompanyFromDomain(company))
}

// Get retrieves a company by ID.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.companyUC.GetCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeDomainError(w, "failed to get company", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CompanyFromDomain(company))
}
