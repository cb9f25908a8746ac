package memory

import (
	"context"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	store *Store
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(store *Store) *CompanyRepository {
	return &CompanyRepository{store: store}
}

// Create stores a company.
func (r *CompanyRepository) Create(ctx context.Context, tx usecase.Transaction, company *domain.Company) error {
	return r.store.write(func(d *state) error {
		cp := *company
		d.companies[company.ID] = &cp
		return nil
	})
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var out *domain.Company
	r.store.read(func(d *state) {
		if c, ok := d.companies[id]; ok {
			cp := *c
			out = &cp
		}
	})
	if out == nil {
		return nil, domain.ErrCompanyNotFound
	}
	return out, nil
}

// NextEntrySequence allocates the next journal number of a company.
func (r *CompanyRepository) NextEntrySequence(ctx context.Context, tx usecase.Transaction, companyID string) (int64, error) {
	var seq int64
	err := r.store.write(func(d *state) error {
		if _, ok := d.companies[companyID]; !ok {
			return domain.ErrCompanyNotFound
		}
		d.entrySeq[companyID]++
		seq = d.entrySeq[companyID]
		return nil
	})
	return seq, err
}
