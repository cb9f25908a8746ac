package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// CompanyRepository implements usecase.CompanyRepository.
type CompanyRepository struct {
	db DBTX
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db DBTX) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a company.
func (r *CompanyRepository) Create(ctx context.Context, tx usecase.Transaction, company *domain.Company) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO companies (id, name, base_currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		company.ID,
		company.Name,
		company.BaseCurrency,
		company.CreatedAt,
		company.UpdatedAt,
	)
	return err
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	var c domain.Company
	err := r.db.QueryRow(ctx, `
		SELECT id, name, base_currency, created_at, updated_at
		FROM companies WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.BaseCurrency, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}

	return &c, nil
}

// NextEntrySequence increments the company's journal counter. The row lock
// taken by the update serializes numbering within a company.
func (r *CompanyRepository) NextEntrySequence(ctx context.Context, tx usecase.Transaction, companyID string) (int64, error) {
	var seq int64
	err := conn(r.db, tx).QueryRow(ctx, `
		UPDATE companies SET entry_sequence = entry_sequence + 1
		WHERE id = $1
		RETURNING entry_sequence`, companyID,
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrCompanyNotFound
		}
		return 0, err
	}

	return seq, nil
}
