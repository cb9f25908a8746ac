package memory

import (
	"context"
	"sort"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ContactRepository implements usecase.ContactRepository.
type ContactRepository struct {
	store *Store
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(store *Store) *ContactRepository {
	return &ContactRepository{store: store}
}

func (r *ContactRepository) Create(ctx context.Context, tx usecase.Transaction, contact *domain.Contact) error {
	return r.store.write(func(d *state) error {
		d.contacts[contact.ID] = cloneContact(contact)
		return nil
	})
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var out *domain.Contact
	r.store.read(func(d *state) {
		if c, ok := d.contacts[id]; ok {
			out = cloneContact(c)
		}
	})
	if out == nil {
		return nil, domain.ErrContactNotFound
	}
	return out, nil
}

// GetByIDsForUpdate returns the contacts that exist, in id order.
func (r *ContactRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Contact, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make([]*domain.Contact, 0, len(sorted))
	r.store.read(func(d *state) {
		for _, id := range sorted {
			if c, ok := d.contacts[id]; ok {
				out = append(out, cloneContact(c))
			}
		}
	})
	return out, nil
}

func (r *ContactRepository) Update(ctx context.Context, tx usecase.Transaction, contact *domain.Contact) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.contacts[contact.ID]; !ok {
			return domain.ErrContactNotFound
		}
		d.contacts[contact.ID] = cloneContact(contact)
		return nil
	})
}

// ListByCompany lists a company's contacts ordered by name.
func (r *ContactRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Contact, error) {
	var all []*domain.Contact
	r.store.read(func(d *state) {
		for _, c := range d.contacts {
			if c.CompanyID == companyID {
				all = append(all, cloneContact(c))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return page(all, limit, offset), nil
}
