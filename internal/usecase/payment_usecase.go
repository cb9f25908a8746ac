package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// PaymentUseCase posts, edits and voids payments.
type PaymentUseCase struct {
	poster      *ledgerPoster
	paymentRepo PaymentRepository
	docRepo     DocumentRepository
	contactRepo ContactRepository
	rates       RateResolver
	locks       RecordLockStore
}

// NewPaymentUseCase creates a new PaymentUseCase. rates and locks may be nil.
func NewPaymentUseCase(
	deps PostingDeps,
	paymentRepo PaymentRepository,
	docRepo DocumentRepository,
	contactRepo ContactRepository,
	rates RateResolver,
	locks RecordLockStore,
) *PaymentUseCase {
	if rates == nil {
		rates = fixedRates{}
	}
	return &PaymentUseCase{
		poster:      newLedgerPoster(deps),
		paymentRepo: paymentRepo,
		docRepo:     docRepo,
		contactRepo: contactRepo,
		rates:       rates,
		locks:       locks,
	}
}

// PaymentInput carries the editable fields of a payment.
type PaymentInput struct {
	Type          domain.PaymentType
	ContactID     string
	PaymentDate   time.Time
	Currency      string
	Amount        decimal.Decimal
	ExchangeRate  decimal.Decimal
	BankAccountID string
	ARAPAccountID string
	InvoiceID     *string
	BillID        *string
	Reference     string
	Notes         string
}

// CreatePaymentInput is the input for CreatePayment.
type CreatePaymentInput struct {
	CompanyID string
	PaymentInput
}

// EditPaymentInput is the input for EditPayment. ExpectedVersion is optional.
type EditPaymentInput struct {
	ID              string
	ExpectedVersion *int64
	PaymentInput
}

// CreatePayment stores a payment, posts its journal entry and applies it to
// the linked invoice or bill.
func (uc *PaymentUseCase) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	start := time.Now()

	next, err := uc.prepare(ctx, input.CompanyID, input.PaymentInput)
	if err != nil {
		return nil, err
	}

	var (
		result  *domain.Payment
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		payment := *next
		payment.ID = uc.poster.IDGen.Generate()
		payment.Status = domain.PaymentStatusPosted
		payment.Version = 1
		payment.CreatedAt = now
		payment.UpdatedAt = now

		posted, err := uc.apply(ctx, tx, nil, &payment, now)
		if err != nil {
			return err
		}

		if err := uc.paymentRepo.Create(ctx, tx, &payment); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, payment.CompanyID, domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentCreated, paymentPayload(&payment), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionPaymentCreate, ResourcePayment, payment.ID, nil, &payment, now); err != nil {
			return err
		}

		result, entries = &payment, posted
		return nil
	})

	uc.poster.observe("payment.create", start, err, entries...)
	if err != nil {
		return nil, err
	}

	if m := uc.poster.Metrics; m != nil {
		m.PaymentsCreated.WithLabelValues(string(result.Type)).Inc()
	}

	return result, nil
}

// EditPayment replaces a payment. The superseded journal entry is reversed
// by an appended entry before the new one is posted, and invoice or bill
// settlement moves by the difference.
func (uc *PaymentUseCase) EditPayment(ctx context.Context, input EditPaymentInput) (*domain.Payment, error) {
	start := time.Now()

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, ResourcePayment, input.ID); err != nil {
		uc.poster.observe("payment.edit", start, err)
		return nil, err
	}

	current, err := uc.paymentRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	next, err := uc.prepare(ctx, current.CompanyID, input.PaymentInput)
	if err != nil {
		return nil, err
	}

	var (
		result  *domain.Payment
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		old, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}
		if old.Status == domain.PaymentStatusVoid {
			return domain.ErrPaymentVoid
		}
		if err := checkVersion(input.ExpectedVersion, old.Version); err != nil {
			return err
		}

		now := time.Now().UTC()
		payment := *next
		payment.ID = old.ID
		payment.CompanyID = old.CompanyID
		payment.Status = domain.PaymentStatusPosted
		payment.Version = old.Version + 1
		payment.CreatedAt = old.CreatedAt
		payment.UpdatedAt = now

		posted, err := uc.apply(ctx, tx, old, &payment, now)
		if err != nil {
			return err
		}

		if err := uc.paymentRepo.Update(ctx, tx, &payment); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, payment.CompanyID, domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentUpdated, paymentPayload(&payment), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionPaymentEdit, ResourcePayment, payment.ID, old, &payment, now); err != nil {
			return err
		}

		result, entries = &payment, posted
		return nil
	})

	uc.poster.observe("payment.edit", start, err, entries...)
	if err != nil {
		return nil, err
	}

	if m := uc.poster.Metrics; m != nil {
		m.PaymentsEdited.WithLabelValues(string(result.Type)).Inc()
	}

	return result, nil
}

// VoidPayment reverses a payment's journal entry, unwinds its settlement
// and marks it void.
func (uc *PaymentUseCase) VoidPayment(ctx context.Context, id string, expectedVersion *int64) (*domain.Payment, error) {
	start := time.Now()

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, ResourcePayment, id); err != nil {
		uc.poster.observe("payment.void", start, err)
		return nil, err
	}

	var (
		result  *domain.Payment
		entries []*domain.JournalEntry
	)
	err := uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		old, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if old.Status == domain.PaymentStatusVoid {
			return domain.ErrPaymentVoid
		}
		if err := checkVersion(expectedVersion, old.Version); err != nil {
			return err
		}

		now := time.Now().UTC()
		posted, err := uc.apply(ctx, tx, old, nil, now)
		if err != nil {
			return err
		}

		voided := *old
		voided.Status = domain.PaymentStatusVoid
		voided.JournalEntryID = nil
		voided.Version = old.Version + 1
		voided.UpdatedAt = now

		if err := uc.paymentRepo.Update(ctx, tx, &voided); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, voided.CompanyID, domain.AggregateTypePayment, voided.ID, domain.EventTypePaymentVoided, paymentPayload(&voided), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionPaymentVoid, ResourcePayment, voided.ID, old, &voided, now); err != nil {
			return err
		}

		result, entries = &voided, posted
		return nil
	})

	uc.poster.observe("payment.void", start, err, entries...)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeletePayment removes a void payment. Posted payments must be voided first
// so their ledger effect is reversed.
func (uc *PaymentUseCase) DeletePayment(ctx context.Context, id string) error {
	return uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		payment, err := uc.paymentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentStatusVoid {
			return domain.ErrDocumentPosted
		}

		if err := uc.paymentRepo.Delete(ctx, tx, id); err != nil {
			return err
		}

		return uc.poster.audit(ctx, tx, domain.AuditActionPaymentDelete, ResourcePayment, id, payment, nil, time.Now().UTC())
	})
}

// GetPayment retrieves a payment by ID.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	return uc.paymentRepo.GetByID(ctx, id)
}

// ListPayments lists a company's payments.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, companyID string, limit, offset int) ([]*domain.Payment, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.paymentRepo.ListByCompany(ctx, companyID, limit, offset)
}

// prepare validates input and converts the amount into base currency.
func (uc *PaymentUseCase) prepare(ctx context.Context, companyID string, input PaymentInput) (*domain.Payment, error) {
	payment := &domain.Payment{
		CompanyID:     companyID,
		Type:          input.Type,
		ContactID:     input.ContactID,
		PaymentDate:   input.PaymentDate,
		Currency:      domain.NormalizeCurrency(input.Currency),
		Amount:        input.Amount,
		BankAccountID: input.BankAccountID,
		ARAPAccountID: input.ARAPAccountID,
		InvoiceID:     input.InvoiceID,
		BillID:        input.BillID,
		Reference:     input.Reference,
		Notes:         input.Notes,
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = time.Now().UTC()
	}

	if !payment.Type.IsValid() {
		return nil, domain.ErrInvalidPaymentType
	}
	if payment.ContactID == "" {
		return nil, domain.ErrContactNotFound
	}
	if err := domain.ValidateCurrency(payment.Currency); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(payment.Amount, payment.Currency); err != nil {
		return nil, err
	}
	if err := payment.ValidateLink(); err != nil {
		return nil, err
	}

	company, err := uc.poster.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	rate, err := uc.rates.Resolve(ctx, payment.Currency, company.BaseCurrency, input.ExchangeRate, payment.PaymentDate)
	if err != nil {
		return nil, err
	}

	base, err := domain.ConvertToBase(payment.Amount, rate, company.BaseCurrency)
	if err != nil {
		return nil, err
	}

	payment.ExchangeRate = rate
	payment.AmountBaseCurrency = base

	return payment, nil
}

// apply moves the ledger, settlement and contact totals from old to next.
// old is nil on create and next is nil on void. Documents and contacts are
// locked before accounts.
func (uc *PaymentUseCase) apply(ctx context.Context, tx Transaction, old, next *domain.Payment, now time.Time) ([]*domain.JournalEntry, error) {
	var oldLink, newLink, oldContact, newContact string
	if old != nil {
		oldLink, oldContact = old.LinkedDocumentID(), old.ContactID
	}
	if next != nil {
		newLink, newContact = next.LinkedDocumentID(), next.ContactID
	}

	docs, err := uc.lockDocuments(ctx, tx, old, next, oldLink, newLink)
	if err != nil {
		return nil, err
	}

	contacts, err := uc.lockContacts(ctx, tx, next, oldContact, newContact)
	if err != nil {
		return nil, err
	}

	var (
		companyID string
		lines     []domain.PostingLine
		skipNew   bool
	)
	if old != nil {
		companyID = old.CompanyID
	}
	if next != nil {
		companyID = next.CompanyID
		lines, err = uc.resolveLines(ctx, tx, next)
		if err != nil {
			if !uc.poster.skipMissing(err, domain.SourcePayment, next.ID) {
				return nil, err
			}
			skipNew = true
		}
	}

	var superseded *domain.JournalEntry
	if old != nil {
		superseded, err = uc.poster.loadSuperseded(ctx, tx, old.JournalEntryID)
		if err != nil {
			return nil, err
		}
	}

	newAccounts := make([]string, 0, len(lines))
	for _, l := range lines {
		newAccounts = append(newAccounts, l.AccountID)
	}

	accounts, err := uc.poster.lockAccounts(ctx, tx, companyID, supersededAccounts(superseded), newAccounts)
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

	if next != nil {
		next.JournalEntryID = nil
		if !skipNew {
			if bank := accounts[next.BankAccountID]; bank == nil || !bank.MoneyAccount() {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotMoneyAccount, next.BankAccountID)
			}

			entry, err := uc.poster.post(ctx, tx, accounts, postingRequest{
				CompanyID:  next.CompanyID,
				EntryDate:  next.PaymentDate,
				SourceType: domain.SourcePayment,
				SourceID:   next.ID,
				Memo:       paymentMemo(next),
				Lines:      lines,
				PostedBy:   postedBy,
			}, now)
			if err != nil {
				return nil, err
			}
			next.JournalEntryID = &entry.ID
			posted = append(posted, entry)
		}
	}

	if err := uc.settle(ctx, tx, docs, old, next, oldLink, newLink, now); err != nil {
		return nil, err
	}

	if err := uc.adjustContacts(ctx, tx, contacts, old, next, now); err != nil {
		return nil, err
	}

	return posted, nil
}

// resolveLines fills in default accounts and builds the payment's lines.
func (uc *PaymentUseCase) resolveLines(ctx context.Context, tx Transaction, p *domain.Payment) ([]domain.PostingLine, error) {
	bankID, err := uc.poster.resolveAccountID(ctx, tx, p.CompanyID, p.BankAccountID, domain.CategoryBank)
	if err != nil {
		return nil, err
	}
	counterpartyID, err := uc.poster.resolveAccountID(ctx, tx, p.CompanyID, p.ARAPAccountID, p.Type.CounterpartyCategory())
	if err != nil {
		return nil, err
	}

	p.BankAccountID = bankID
	p.ARAPAccountID = counterpartyID

	return p.Lines()
}

func (uc *PaymentUseCase) lockDocuments(ctx context.Context, tx Transaction, old, next *domain.Payment, oldLink, newLink string) (map[string]*domain.Document, error) {
	ids := uniqueSorted(oldLink, newLink)
	docs := make(map[string]*domain.Document, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	locked, err := uc.docRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(ids) {
		return nil, domain.ErrDocumentNotFound
	}
	for _, d := range locked {
		docs[d.ID] = d
	}

	if newLink != "" {
		doc := docs[newLink]
		if err := domain.EnsureSameCompany(next.CompanyID, doc.CompanyID); err != nil {
			return nil, err
		}
		if doc.Kind != next.Type.LinkKind() {
			return nil, domain.ErrInvalidDocumentLink
		}
		if doc.Status == domain.DocumentStatusVoid && newLink != oldLink {
			return nil, domain.ErrDocumentVoid
		}
		if doc.Currency != next.Currency {
			return nil, fmt.Errorf("%w: document in %s, payment in %s", domain.ErrCurrencyMismatch, doc.Currency, next.Currency)
		}
	}

	return docs, nil
}

func (uc *PaymentUseCase) lockContacts(ctx context.Context, tx Transaction, next *domain.Payment, oldContact, newContact string) (map[string]*domain.Contact, error) {
	contacts, err := lockContacts(ctx, tx, uc.contactRepo, uniqueSorted(oldContact, newContact))
	if err != nil {
		return nil, err
	}

	if next != nil {
		contact := contacts[newContact]
		if err := domain.EnsureSameCompany(next.CompanyID, contact.CompanyID); err != nil {
			return nil, err
		}
		if contact.Kind != next.Type.LinkKind().ContactKind() {
			return nil, domain.ErrContactKindMismatch
		}
	}

	return contacts, nil
}

// settle applies the payment to linked documents. The same target receives
// one delta; a changed target is unwound and applied separately.
func (uc *PaymentUseCase) settle(ctx context.Context, tx Transaction, docs map[string]*domain.Document, old, next *domain.Payment, oldLink, newLink string, now time.Time) error {
	changed := make([]*domain.Document, 0, 2)

	switch {
	case oldLink != "" && oldLink == newLink:
		doc := docs[oldLink]
		doc.ApplyPayment(next.Amount.Sub(old.Amount), now)
		changed = append(changed, doc)
	default:
		if oldLink != "" {
			doc := docs[oldLink]
			doc.ApplyPayment(old.Amount.Neg(), now)
			changed = append(changed, doc)
		}
		if newLink != "" {
			doc := docs[newLink]
			doc.ApplyPayment(next.Amount, now)
			changed = append(changed, doc)
		}
	}

	for _, doc := range changed {
		doc.Version++
		doc.UpdatedAt = now
		if err := uc.docRepo.Update(ctx, tx, doc); err != nil {
			return err
		}
	}

	return nil
}

// adjustContacts keeps contact outstanding totals in step with payments.
func (uc *PaymentUseCase) adjustContacts(ctx context.Context, tx Transaction, contacts map[string]*domain.Contact, old, next *domain.Payment, now time.Time) error {
	deltas := make(map[string]decimal.Decimal, 2)
	if old != nil {
		deltas[old.ContactID] = deltas[old.ContactID].Sub(old.OutstandingDelta())
	}
	if next != nil {
		deltas[next.ContactID] = deltas[next.ContactID].Add(next.OutstandingDelta())
	}

	return adjustOutstanding(ctx, tx, uc.contactRepo, contacts, deltas, now)
}

func paymentMemo(p *domain.Payment) string {
	memo := fmt.Sprintf("Payment %s %s %s", p.Type, p.Amount.StringFixed(2), p.Currency)
	if p.Reference != "" {
		memo += " (" + p.Reference + ")"
	}
	return memo
}

func paymentPayload(p *domain.Payment) map[string]any {
	return map[string]any{
		"payment_id":           p.ID,
		"payment_type":         string(p.Type),
		"contact_id":           p.ContactID,
		"amount":               p.Amount.String(),
		"currency":             p.Currency,
		"amount_base_currency": p.AmountBaseCurrency.String(),
		"journal_entry_id":     derefOr(p.JournalEntryID),
		"linked_document_id":   p.LinkedDocumentID(),
		"status":               string(p.Status),
		"version":              p.Version,
	}
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
