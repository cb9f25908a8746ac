package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ExchangeRateRepository implements usecase.ExchangeRateRepository.
type ExchangeRateRepository struct {
	store *Store
}

// NewExchangeRateRepository creates a new ExchangeRateRepository.
func NewExchangeRateRepository(store *Store) *ExchangeRateRepository {
	return &ExchangeRateRepository{store: store}
}

func (r *ExchangeRateRepository) Create(ctx context.Context, rate *domain.ExchangeRate) error {
	return r.store.write(func(d *state) error {
		cp := *rate
		d.rates = append(d.rates, &cp)
		return nil
	})
}

// Latest returns the newest rate effective at or before at.
func (r *ExchangeRateRepository) Latest(ctx context.Context, baseCurrency, quoteCurrency string, at time.Time) (*domain.ExchangeRate, error) {
	var out *domain.ExchangeRate
	r.store.read(func(d *state) {
		for _, rate := range d.rates {
			if rate.BaseCurrency != baseCurrency || rate.QuoteCurrency != quoteCurrency || rate.EffectiveAt.After(at) {
				continue
			}
			if out == nil || !rate.EffectiveAt.Before(out.EffectiveAt) {
				out = rate
			}
		}
	})
	if out == nil {
		return nil, domain.ErrExchangeRateNotFound
	}
	cp := *out
	return &cp, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// CheckConsistency totals every journal line.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	debits, credits := decimal.Zero, decimal.Zero
	r.store.read(func(d *state) {
		for _, e := range d.entries {
			for _, l := range e.Lines {
				debits = debits.Add(l.Debit)
				credits = credits.Add(l.Credit)
			}
		}
	})
	return debits, credits, nil
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return r.store.write(func(d *state) error {
		cp := *event
		d.outbox = append(d.outbox, &cp)
		return nil
	})
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	r.store.read(func(d *state) {
		for _, e := range d.outbox {
			if e.Published {
				continue
			}
			cp := *e
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.write(func(d *state) error {
		for _, e := range d.outbox {
			if e.ID == id {
				at := publishedAt
				e.Published = true
				e.PublishedAt = &at
				return nil
			}
		}
		return nil
	})
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.write(func(d *state) error {
		kept := d.outbox[:0]
		for _, e := range d.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		d.outbox = kept
		return nil
	})
}

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.store.write(func(d *state) error {
		cp := *log
		d.audit = append(d.audit, &cp)
		return nil
	})
}

// List returns audit logs matching filter, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	r.store.read(func(d *state) {
		for _, l := range d.audit {
			switch {
			case filter.UserID != "" && l.UserID != filter.UserID,
				filter.Action != "" && l.Action != filter.Action,
				filter.ResourceType != "" && l.ResourceType != filter.ResourceType,
				filter.ResourceID != "" && l.ResourceID != filter.ResourceID,
				filter.StartDate != nil && l.CreatedAt.Before(*filter.StartDate),
				filter.EndDate != nil && l.CreatedAt.After(*filter.EndDate):
				continue
			}
			cp := *l
			out = append(out, &cp)
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit, offset, _ := domain.ValidatePagination(filter.Limit, filter.Offset)
	return page(out, limit, offset), nil
}
