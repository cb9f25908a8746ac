package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	store *Store
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(store *Store) *JournalRepository {
	return &JournalRepository{store: store}
}

// Create stores an entry. An entry can be reversed only once.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	return r.store.write(func(d *state) error {
		if entry.ReversesEntryID != nil {
			if _, taken := d.reversedBy[*entry.ReversesEntryID]; taken {
				return domain.ErrAlreadyReversed
			}
			if _, ok := d.entries[*entry.ReversesEntryID]; !ok {
				return domain.ErrEntryNotFound
			}
			d.reversedBy[*entry.ReversesEntryID] = entry.ID
		}

		d.entries[entry.ID] = cloneEntry(entry, "")
		d.entryOrder = append(d.entryOrder, entry.ID)
		return nil
	})
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	var out *domain.JournalEntry
	r.store.read(func(d *state) {
		if e, ok := d.entries[id]; ok {
			out = cloneEntry(e, d.reversedBy[id])
		}
	})
	if out == nil {
		return nil, domain.ErrEntryNotFound
	}
	return out, nil
}

// GetByIDTx retrieves an entry inside a transaction.
func (r *JournalRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.GetByID(ctx, id)
}

// ListByCompany lists a company's entries, newest first.
func (r *JournalRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.JournalEntry, error) {
	var all []*domain.JournalEntry
	r.store.read(func(d *state) {
		for i := len(d.entryOrder) - 1; i >= 0; i-- {
			id := d.entryOrder[i]
			if e := d.entries[id]; e.CompanyID == companyID {
				all = append(all, cloneEntry(e, d.reversedBy[id]))
			}
		}
	})
	return page(all, limit, offset), nil
}

// ListLinesByAccount lists the lines posted to an account in posting order.
func (r *JournalRepository) ListLinesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.JournalLine, error) {
	var all []*domain.JournalLine
	r.store.read(func(d *state) {
		for _, id := range d.entryOrder {
			for _, l := range d.entries[id].Lines {
				if l.AccountID == accountID {
					line := l
					all = append(all, &line)
				}
			}
		}
	})
	return page(all, limit, offset), nil
}

// SumByAccount totals the debits and credits posted to an account.
func (r *JournalRepository) SumByAccount(ctx context.Context, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	debits, credits := decimal.Zero, decimal.Zero
	r.store.read(func(d *state) {
		for _, e := range d.entries {
			for _, l := range e.Lines {
				if l.AccountID == accountID {
					debits = debits.Add(l.Debit)
					credits = credits.Add(l.Credit)
				}
			}
		}
	})
	return debits, credits, nil
}

// TrialBalance sums every account of a company over entries dated up to asOf.
func (r *JournalRepository) TrialBalance(ctx context.Context, companyID string, asOf time.Time) ([]*domain.TrialBalanceLine, error) {
	byAccount := make(map[string]*domain.TrialBalanceLine)
	r.store.read(func(d *state) {
		for _, e := range d.entries {
			if e.CompanyID != companyID || e.EntryDate.After(asOf) {
				continue
			}
			for _, l := range e.Lines {
				tb, ok := byAccount[l.AccountID]
				if !ok {
					tb = &domain.TrialBalanceLine{AccountID: l.AccountID, Debits: decimal.Zero, Credits: decimal.Zero}
					byAccount[l.AccountID] = tb
				}
				tb.Debits = tb.Debits.Add(l.Debit)
				tb.Credits = tb.Credits.Add(l.Credit)
			}
		}

		for id, tb := range byAccount {
			if a, ok := d.accounts[id]; ok {
				tb.AccountCode = a.Code
				tb.AccountName = a.Name
				tb.AccountType = a.Type
				tb.Balance = a.BalanceFromTotals(tb.Debits, tb.Credits)
			}
		}
	})

	out := make([]*domain.TrialBalanceLine, 0, len(byAccount))
	for _, tb := range byAccount {
		out = append(out, tb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out, nil
}
