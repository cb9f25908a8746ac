package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iho/erpledger/internal/domain"
)

// CompanyUseCase creates and reads companies.
type CompanyUseCase struct {
	poster *ledgerPoster
}

// NewCompanyUseCase creates a new CompanyUseCase.
func NewCompanyUseCase(deps PostingDeps) *CompanyUseCase {
	return &CompanyUseCase{poster: newLedgerPoster(deps)}
}

// CreateCompanyInput is the input for CreateCompany.
type CreateCompanyInput struct {
	Name         string
	BaseCurrency string
}

// CreateCompany stores a company. Its ledger is kept in BaseCurrency.
func (uc *CompanyUseCase) CreateCompany(ctx context.Context, input CreateCompanyInput) (*domain.Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: company name is required", domain.ErrInvalidAccountName)
	}

	currency := domain.NormalizeCurrency(input.BaseCurrency)
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	var company *domain.Company
	err := uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		company = &domain.Company{
			ID:           uc.poster.IDGen.Generate(),
			Name:         name,
			BaseCurrency: currency,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := uc.poster.CompanyRepo.Create(ctx, tx, company); err != nil {
			return err
		}

		return uc.poster.audit(ctx, tx, domain.AuditActionCompanyCreate, ResourceCompany, company.ID, nil, company, now)
	})
	if err != nil {
		return nil, err
	}

	return company, nil
}

// GetCompany retrieves a company by ID.
func (uc *CompanyUseCase) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	return uc.poster.CompanyRepo.GetByID(ctx, id)
}
