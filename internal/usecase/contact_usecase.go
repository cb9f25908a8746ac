package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// ContactUseCase manages customers and vendors and their opening balances.
type ContactUseCase struct {
	poster      *ledgerPoster
	contactRepo ContactRepository
	locks       RecordLockStore
}

// NewContactUseCase creates a new ContactUseCase. locks may be nil.
func NewContactUseCase(deps PostingDeps, contactRepo ContactRepository, locks RecordLockStore) *ContactUseCase {
	return &ContactUseCase{
		poster:      newLedgerPoster(deps),
		contactRepo: contactRepo,
		locks:       locks,
	}
}

// CreateContactInput is the input for CreateContact. OpeningBalance is in
// the company's base currency.
type CreateContactInput struct {
	CompanyID          string
	Kind               domain.ContactKind
	Name               string
	Email              string
	Currency           string
	OpeningBalance     decimal.Decimal
	OpeningBalanceDate time.Time
}

// UpdateOpeningBalanceInput is the input for UpdateOpeningBalance.
type UpdateOpeningBalanceInput struct {
	ContactID       string
	Amount          decimal.Decimal
	Date            time.Time
	ExpectedVersion *int64
}

// CreateContact stores a contact and posts its opening balance, if any.
func (uc *ContactUseCase) CreateContact(ctx context.Context, input CreateContactInput) (*domain.Contact, error) {
	start := time.Now()

	if !input.Kind.IsValid() {
		return nil, domain.ErrInvalidContactKind
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidAccountName)
	}
	if input.Email != "" {
		if err := domain.ValidateEmail(input.Email); err != nil {
			return nil, err
		}
	}

	company, err := uc.poster.CompanyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}

	currency := domain.NormalizeCurrency(input.Currency)
	if currency == "" {
		currency = company.BaseCurrency
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}
	if err := validateOpeningBalance(input.OpeningBalance, company.BaseCurrency); err != nil {
		return nil, err
	}

	var (
		result  *domain.Contact
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		contact := &domain.Contact{
			ID:                 uc.poster.IDGen.Generate(),
			CompanyID:          input.CompanyID,
			Kind:               input.Kind,
			Name:               name,
			Email:              input.Email,
			Currency:           currency,
			OpeningBalance:     decimal.Zero,
			OpeningBalanceDate: openingDate(input.OpeningBalanceDate, now),
			TotalOutstanding:   decimal.Zero,
			Version:            1,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		posted, err := uc.apply(ctx, tx, contact, input.OpeningBalance, contact.OpeningBalanceDate, now)
		if err != nil {
			return err
		}

		if err := uc.contactRepo.Create(ctx, tx, contact); err != nil {
			return err
		}

		if err := uc.poster.audit(ctx, tx, domain.AuditActionContactCreate, ResourceContact, contact.ID, nil, contact, now); err != nil {
			return err
		}

		result, entries = contact, posted
		return nil
	})

	uc.poster.observe("contact.create", start, err, entries...)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// UpdateOpeningBalance replaces a contact's opening balance. The previous
// opening entry is reversed and a new one is posted unless the amount is zero.
func (uc *ContactUseCase) UpdateOpeningBalance(ctx context.Context, input UpdateOpeningBalanceInput) (*domain.Contact, error) {
	start := time.Now()

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, ResourceContact, input.ContactID); err != nil {
		uc.poster.observe("contact.opening_balance", start, err)
		return nil, err
	}

	current, err := uc.contactRepo.GetByID(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}
	company, err := uc.poster.CompanyRepo.GetByID(ctx, current.CompanyID)
	if err != nil {
		return nil, err
	}
	if err := validateOpeningBalance(input.Amount, company.BaseCurrency); err != nil {
		return nil, err
	}

	var (
		result  *domain.Contact
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		contacts, err := lockContacts(ctx, tx, uc.contactRepo, []string{input.ContactID})
		if err != nil {
			return err
		}
		contact := contacts[input.ContactID]
		if err := checkVersion(input.ExpectedVersion, contact.Version); err != nil {
			return err
		}

		now := time.Now().UTC()
		before := *contact
		date := openingDate(input.Date, contact.OpeningBalanceDate)

		posted, err := uc.apply(ctx, tx, contact, input.Amount, date, now)
		if err != nil {
			return err
		}
		contact.Version++
		if err := uc.contactRepo.Update(ctx, tx, contact); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, contact.CompanyID, domain.AggregateTypeContact, contact.ID, domain.EventTypeOpeningBalanceChanged, map[string]any{
			"contact_id":       contact.ID,
			"kind":             string(contact.Kind),
			"previous_balance": before.OpeningBalance.String(),
			"opening_balance":  contact.OpeningBalance.String(),
			"journal_entry_id": derefOr(contact.OpeningBalanceEntryID),
		}, now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionOpeningBalanceChange, ResourceContact, contact.ID, &before, contact, now); err != nil {
			return err
		}

		result, entries = contact, posted
		return nil
	})

	uc.poster.observe("contact.opening_balance", start, err, entries...)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetContact retrieves a contact by ID.
func (uc *ContactUseCase) GetContact(ctx context.Context, id string) (*domain.Contact, error) {
	return uc.contactRepo.GetByID(ctx, id)
}

// ListContacts lists a company's contacts.
func (uc *ContactUseCase) ListContacts(ctx context.Context, companyID string, limit, offset int) ([]*domain.Contact, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.contactRepo.ListByCompany(ctx, companyID, limit, offset)
}

// apply moves the contact's opening balance to amount. The caller holds the
// contact lock and persists the contact afterwards.
func (uc *ContactUseCase) apply(ctx context.Context, tx Transaction, contact *domain.Contact, amount decimal.Decimal, date, now time.Time) ([]*domain.JournalEntry, error) {
	var (
		lines   []domain.PostingLine
		skipNew bool
	)
	if amount.IsPositive() {
		control, err := uc.poster.resolveAccountID(ctx, tx, contact.CompanyID, "", contact.ControlCategory())
		if err == nil {
			var capital string
			capital, err = uc.poster.resolveAccountID(ctx, tx, contact.CompanyID, "", domain.CategoryOwnersCapital)
			if err == nil {
				lines, err = contact.OpeningBalanceLines(control, capital, amount)
			}
		}
		if err != nil {
			if !uc.poster.skipMissing(err, domain.SourceOpeningBalance, contact.ID) {
				return nil, err
			}
			skipNew = true
		}
	}

	superseded, err := uc.poster.loadSuperseded(ctx, tx, contact.OpeningBalanceEntryID)
	if err != nil {
		return nil, err
	}

	newAccounts := make([]string, 0, len(lines))
	for _, l := range lines {
		newAccounts = append(newAccounts, l.AccountID)
	}

	accounts, err := uc.poster.lockAccounts(ctx, tx, contact.CompanyID, supersededAccounts(superseded), newAccounts)
	if err != nil {
		return nil, err
	}

	posted := make([]*domain.JournalEntry, 0, 2)
	postedBy := domain.ActorID(ctx)

	if superseded != nil {
		reversal, err := uc.poster.reverse(ctx, tx, accounts, superseded, postedBy, now)
		if err != nil {
			return nil, err
		}
		posted = append(posted, reversal)
	}

	contact.OpeningBalanceEntryID = nil
	if len(lines) > 0 && !skipNew {
		entry, err := uc.poster.post(ctx, tx, accounts, postingRequest{
			CompanyID:  contact.CompanyID,
			EntryDate:  date,
			SourceType: domain.SourceOpeningBalance,
			SourceID:   contact.ID,
			Memo:       "Opening balance " + contact.Name,
			Lines:      lines,
			PostedBy:   postedBy,
		}, now)
		if err != nil {
			return nil, err
		}
		contact.OpeningBalanceEntryID = &entry.ID
		posted = append(posted, entry)
	}

	contact.TotalOutstanding = contact.TotalOutstanding.Add(amount.Sub(contact.OpeningBalance))
	contact.OpeningBalance = amount
	contact.OpeningBalanceDate = date
	contact.UpdatedAt = now

	return posted, nil
}

func validateOpeningBalance(amount decimal.Decimal, currency string) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: opening balance must not be negative", domain.ErrInvalidAmount)
	}
	if amount.IsZero() {
		return nil
	}
	return domain.ValidateAmount(amount, currency)
}

func openingDate(date, fallback time.Time) time.Time {
	if date.IsZero() {
		return fallback
	}
	return date
}
