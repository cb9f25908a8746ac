package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// JournalUseCase posts manual journal entries and serves ledger queries.
type JournalUseCase struct {
	poster *ledgerPoster
	locks  RecordLockStore
}

// NewJournalUseCase creates a new JournalUseCase. locks may be nil.
func NewJournalUseCase(deps PostingDeps, locks RecordLockStore) *JournalUseCase {
	return &JournalUseCase{
		poster: newLedgerPoster(deps),
		locks:  locks,
	}
}

// ManualLine is one line of a manual entry. Exactly one of Debit and Credit
// must be positive.
type ManualLine struct {
	AccountID   string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// CreateManualEntryInput is the input for CreateManualEntry.
type CreateManualEntryInput struct {
	CompanyID string
	EntryDate time.Time
	Memo      string
	Lines     []ManualLine
}

// TrialBalance lists per-account totals of a company up to AsOf.
type TrialBalance struct {
	CompanyID    string
	AsOf         time.Time
	Lines        []*domain.TrialBalanceLine
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Balanced     bool
}

// CreateManualEntry posts a balanced entry entered by hand.
func (uc *JournalUseCase) CreateManualEntry(ctx context.Context, input CreateManualEntryInput) (*domain.JournalEntry, error) {
	start := time.Now()

	company, err := uc.poster.CompanyRepo.GetByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}

	lines, err := manualPostingLines(input.Lines, company.BaseCurrency)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckBalanced(lines); err != nil {
		return nil, err
	}

	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	var entry *domain.JournalEntry
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		ids := make([]string, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.AccountID)
		}

		accounts, err := uc.poster.lockAccounts(ctx, tx, input.CompanyID, ids)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		entry, err = uc.poster.post(ctx, tx, accounts, postingRequest{
			CompanyID:  input.CompanyID,
			EntryDate:  entryDate,
			SourceType: domain.SourceManual,
			Memo:       input.Memo,
			Lines:      lines,
			PostedBy:   domain.ActorID(ctx),
		}, now)
		if err != nil {
			return err
		}

		return uc.poster.audit(ctx, tx, domain.AuditActionEntryPost, ResourceJournalEntry, entry.ID, nil, entry, now)
	})

	uc.poster.observe("journal.post", start, err, entry)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ReverseEntry appends a reversal of a manual entry. Entries posted for a
// payment, invoice, bill or opening balance are reversed through their
// document instead.
func (uc *JournalUseCase) ReverseEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	start := time.Now()

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, ResourceJournalEntry, id); err != nil {
		uc.poster.observe("journal.reverse", start, err)
		return nil, err
	}

	current, err := uc.poster.JournalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.SourceType != domain.SourceManual {
		return nil, fmt.Errorf("%w: entry %s belongs to %s %s", domain.ErrSourceManaged, current.EntryNumber, current.SourceType, current.SourceID)
	}

	var reversal *domain.JournalEntry
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		accounts, err := uc.poster.lockAccounts(ctx, tx, current.CompanyID, current.AccountIDs())
		if err != nil {
			return err
		}

		original, err := uc.poster.JournalRepo.GetByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		reversal, err = uc.poster.reverse(ctx, tx, accounts, original, domain.ActorID(ctx), now)
		if err != nil {
			return err
		}

		return uc.poster.audit(ctx, tx, domain.AuditActionEntryReverse, ResourceJournalEntry, original.ID, original, reversal, now)
	})

	uc.poster.observe("journal.reverse", start, err, reversal)
	if err != nil {
		return nil, err
	}

	return reversal, nil
}

// GetEntry retrieves a journal entry with its lines.
func (uc *JournalUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.poster.JournalRepo.GetByID(ctx, id)
}

// ListEntries lists a company's journal entries, newest first.
func (uc *JournalUseCase) ListEntries(ctx context.Context, companyID string, limit, offset int) ([]*domain.JournalEntry, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.poster.JournalRepo.ListByCompany(ctx, companyID, limit, offset)
}

// ListAccountLines lists the journal lines posted to an account.
func (uc *JournalUseCase) ListAccountLines(ctx context.Context, accountID string, limit, offset int) ([]*domain.JournalLine, error) {
	if _, err := uc.poster.AccountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.poster.JournalRepo.ListLinesByAccount(ctx, accountID, limit, offset)
}

// TrialBalance sums every account of a company up to asOf. A zero asOf
// means now.
func (uc *JournalUseCase) TrialBalance(ctx context.Context, companyID string, asOf time.Time) (*TrialBalance, error) {
	if _, err := uc.poster.CompanyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	lines, err := uc.poster.JournalRepo.TrialBalance(ctx, companyID, asOf)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{
		CompanyID:    companyID,
		AsOf:         asOf,
		Lines:        lines,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, l := range lines {
		tb.TotalDebits = tb.TotalDebits.Add(l.Debits)
		tb.TotalCredits = tb.TotalCredits.Add(l.Credits)
	}
	tb.Balanced = tb.TotalDebits.Equal(tb.TotalCredits)

	return tb, nil
}

func manualPostingLines(in []ManualLine, currency string) ([]domain.PostingLine, error) {
	lines := make([]domain.PostingLine, 0, len(in))
	for i, l := range in {
		if l.AccountID == "" {
			return nil, fmt.Errorf("line %d: %w", i+1, domain.ErrAccountNotFound)
		}

		var (
			side   domain.Side
			amount decimal.Decimal
		)
		switch {
		case l.Debit.IsPositive() && l.Credit.IsZero():
			side, amount = domain.SideDebit, l.Debit
		case l.Credit.IsPositive() && l.Debit.IsZero():
			side, amount = domain.SideCredit, l.Credit
		default:
			return nil, fmt.Errorf("line %d: %w", i+1, domain.ErrInvalidLine)
		}

		if err := domain.ValidateAmount(amount, currency); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		lines = append(lines, domain.PostingLine{
			AccountID:   l.AccountID,
			Side:        side,
			Amount:      amount,
			Description: l.Description,
		})
	}
	return lines, nil
}
