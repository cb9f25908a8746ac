package memory

import (
	"context"
	"sort"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	store *Store
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	return r.store.write(func(d *state) error {
		d.payments[payment.ID] = clonePayment(payment)
		return nil
	})
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	r.store.read(func(d *state) {
		if p, ok := d.payments[id]; ok {
			out = clonePayment(p)
		}
	})
	if out == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return out, nil
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *PaymentRepository) Update(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.payments[payment.ID]; !ok {
			return domain.ErrPaymentNotFound
		}
		d.payments[payment.ID] = clonePayment(payment)
		return nil
	})
}

func (r *PaymentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.write(func(d *state) error {
		if _, ok := d.payments[id]; !ok {
			return domain.ErrPaymentNotFound
		}
		delete(d.payments, id)
		return nil
	})
}

// ListByCompany lists a company's payments, newest payment date first.
func (r *PaymentRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Payment, error) {
	var all []*domain.Payment
	r.store.read(func(d *state) {
		for _, p := range d.payments {
			if p.CompanyID == companyID {
				all = append(all, clonePayment(p))
			}
		}
	})
	sort.Slice(all, func(i, j int) bool {
		if !all[i].PaymentDate.Equal(all[j].PaymentDate) {
			return all[i].PaymentDate.After(all[j].PaymentDate)
		}
		return all[i].ID > all[j].ID
	})
	return page(all, limit, offset), nil
}
