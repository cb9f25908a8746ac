package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stores an account. Codes are unique per company.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.write(func(d *state) error {
		for _, a := range d.accounts {
			if a.CompanyID == account.CompanyID && a.Code == account.Code {
				return domain.ErrDuplicateAccount
			}
		}
		d.accounts[account.ID] = cloneAccount(account)
		return nil
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var out *domain.Account
	r.store.read(func(d *state) {
		if a, ok := d.accounts[id]; ok {
			out = cloneAccount(a)
		}
	})
	if out == nil {
		return nil, domain.ErrAccountNotFound
	}
	return out, nil
}

// GetByIDsForUpdate returns the accounts that exist, in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make([]*domain.Account, 0, len(sorted))
	r.store.read(func(d *state) {
		for _, id := range sorted {
			if a, ok := d.accounts[id]; ok {
				out = append(out, cloneAccount(a))
			}
		}
	})
	return out, nil
}

// FindByCategory returns the active account of the category with the lowest code.
func (r *AccountRepository) FindByCategory(ctx context.Context, tx usecase.Transaction, companyID string, category domain.AccountCategory) (*domain.Account, error) {
	var out *domain.Account
	r.store.read(func(d *state) {
		for _, a := range d.accounts {
			if a.CompanyID != companyID || a.Category != category || !a.Active {
				continue
			}
			if out == nil || a.Code < out.Code {
				out = a
			}
		}
		if out != nil {
			out = cloneAccount(out)
		}
	})
	if out == nil {
		return nil, domain.ErrAccountNotFound
	}
	return out, nil
}

// UpdateBalance stores a new running balance and version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	return r.store.write(func(d *state) error {
		a, ok := d.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		a.Balance = balance
		a.Version = version
		a.UpdatedAt = updatedAt
		return nil
	})
}

// ListByCompany lists a company's accounts ordered by code.
func (r *AccountRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error) {
	var all []*domain.Account
	r.store.read(func(d *state) {
		for _, a := range d.accounts {
			if a.CompanyID == companyID {
				all = append(all, cloneAccount(a))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}
