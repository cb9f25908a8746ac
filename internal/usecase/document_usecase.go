package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// DocumentUseCase posts, edits and voids invoices and bills.
type DocumentUseCase struct {
	poster      *ledgerPoster
	docRepo     DocumentRepository
	contactRepo ContactRepository
	rates       RateResolver
	locks       RecordLockStore
}

// NewDocumentUseCase creates a new DocumentUseCase. rates and locks may be nil.
func NewDocumentUseCase(
	deps PostingDeps,
	docRepo DocumentRepository,
	contactRepo ContactRepository,
	rates RateResolver,
	locks RecordLockStore,
) *DocumentUseCase {
	if rates == nil {
		rates = fixedRates{}
	}
	return &DocumentUseCase{
		poster:      newLedgerPoster(deps),
		docRepo:     docRepo,
		contactRepo: contactRepo,
		rates:       rates,
		locks:       locks,
	}
}

// DocumentInput carries the editable fields of an invoice or bill.
type DocumentInput struct {
	ContactID        string
	Number           string
	IssueDate        time.Time
	DueDate          *time.Time
	Currency         string
	ExchangeRate     decimal.Decimal
	Lines            []domain.DocumentLine
	TaxAmount        decimal.Decimal
	TaxAccountID     string
	ControlAccountID string
}

// CreateDocumentInput is the input for CreateDocument.
type CreateDocumentInput struct {
	CompanyID string
	Kind      domain.DocumentKind
	DocumentInput
}

// EditDocumentInput is the input for EditDocument.
type EditDocumentInput struct {
	ID              string
	ExpectedVersion *int64
	DocumentInput
}

// CreateDocument stores an invoice or bill and posts its journal entry.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	start := time.Now()
	operation := string(input.Kind) + ".create"

	if !input.Kind.IsValid() {
		return nil, domain.ErrInvalidDocumentKind
	}

	next, err := uc.prepare(ctx, input.CompanyID, input.Kind, input.DocumentInput)
	if err != nil {
		return nil, err
	}

	var (
		result  *domain.Document
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		doc := *next
		doc.ID = uc.poster.IDGen.Generate()
		if doc.Number == "" {
			doc.Number = defaultDocumentNumber(doc.Kind, doc.ID)
		}
		doc.Status = domain.DocumentStatusSent
		doc.AmountPaid = decimal.Zero
		doc.Recompute(now)
		doc.Version = 1
		doc.CreatedAt = now
		doc.UpdatedAt = now

		posted, err := uc.apply(ctx, tx, nil, &doc, now)
		if err != nil {
			return err
		}

		if err := uc.docRepo.Create(ctx, tx, &doc); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, doc.CompanyID, domain.AggregateTypeDocument, doc.ID, domain.EventTypeDocumentCreated, documentPayload(&doc), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionDocumentCreate, string(doc.Kind), doc.ID, nil, &doc, now); err != nil {
			return err
		}

		result, entries = &doc, posted
		return nil
	})

	uc.poster.observe(operation, start, err, entries...)
	if err != nil {
		return nil, err
	}

	if m := uc.poster.Metrics; m != nil {
		m.DocumentsCreated.WithLabelValues(string(result.Kind)).Inc()
	}

	return result, nil
}

// EditDocument replaces the lines and terms of a document. Payments already
// applied are kept, so the new total may not drop below the amount paid.
func (uc *DocumentUseCase) EditDocument(ctx context.Context, input EditDocumentInput) (*domain.Document, error) {
	start := time.Now()

	current, err := uc.docRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	operation := string(current.Kind) + ".edit"

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, documentResource(current.Kind), input.ID); err != nil {
		uc.poster.observe(operation, start, err)
		return nil, err
	}

	next, err := uc.prepare(ctx, current.CompanyID, current.Kind, input.DocumentInput)
	if err != nil {
		return nil, err
	}

	var (
		result  *domain.Document
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.docRepo.GetByIDsForUpdate(ctx, tx, []string{input.ID})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return domain.ErrDocumentNotFound
		}
		old := locked[0]

		if old.Status == domain.DocumentStatusVoid {
			return domain.ErrDocumentVoid
		}
		if err := checkVersion(input.ExpectedVersion, old.Version); err != nil {
			return err
		}
		if old.AmountPaid.IsPositive() && old.Currency != next.Currency {
			return fmt.Errorf("%w: currency cannot change after payment", domain.ErrDocumentHasPayments)
		}
		if old.AmountPaid.IsPositive() && old.ContactID != next.ContactID {
			return fmt.Errorf("%w: contact cannot change after payment", domain.ErrDocumentHasPayments)
		}
		if next.TotalAmount.LessThan(old.AmountPaid) {
			return fmt.Errorf("%w: total %s below amount paid %s", domain.ErrOverpayment, next.TotalAmount, old.AmountPaid)
		}

		now := time.Now().UTC()
		doc := *next
		doc.ID = old.ID
		doc.CompanyID = old.CompanyID
		doc.Kind = old.Kind
		if doc.Number == "" {
			doc.Number = old.Number
		}
		doc.AmountPaid = old.AmountPaid
		doc.Status = old.Status
		doc.Recompute(now)
		doc.Version = old.Version + 1
		doc.CreatedAt = old.CreatedAt
		doc.UpdatedAt = now

		before := *old
		posted, err := uc.apply(ctx, tx, old, &doc, now)
		if err != nil {
			return err
		}

		if err := uc.docRepo.Update(ctx, tx, &doc); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, doc.CompanyID, domain.AggregateTypeDocument, doc.ID, domain.EventTypeDocumentUpdated, documentPayload(&doc), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionDocumentEdit, string(doc.Kind), doc.ID, &before, &doc, now); err != nil {
			return err
		}

		result, entries = &doc, posted
		return nil
	})

	uc.poster.observe(operation, start, err, entries...)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// VoidDocument reverses a document's journal entry and marks it void.
// Documents with payments applied cannot be voided.
func (uc *DocumentUseCase) VoidDocument(ctx context.Context, id string, expectedVersion *int64) (*domain.Document, error) {
	start := time.Now()

	current, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	operation := string(current.Kind) + ".void"

	if err := checkRecordLock(ctx, uc.locks, uc.poster.Logger, documentResource(current.Kind), id); err != nil {
		uc.poster.observe(operation, start, err)
		return nil, err
	}

	var (
		result  *domain.Document
		entries []*domain.JournalEntry
	)
	err = uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		locked, err := uc.docRepo.GetByIDsForUpdate(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return domain.ErrDocumentNotFound
		}
		old := locked[0]

		if old.Status == domain.DocumentStatusVoid {
			return domain.ErrDocumentVoid
		}
		if err := checkVersion(expectedVersion, old.Version); err != nil {
			return err
		}
		if old.AmountPaid.IsPositive() {
			return domain.ErrDocumentHasPayments
		}

		now := time.Now().UTC()
		before := *old
		posted, err := uc.apply(ctx, tx, old, nil, now)
		if err != nil {
			return err
		}

		voided := before
		voided.Status = domain.DocumentStatusVoid
		voided.JournalEntryID = nil
		voided.Version = old.Version + 1
		voided.UpdatedAt = now

		if err := uc.docRepo.Update(ctx, tx, &voided); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, voided.CompanyID, domain.AggregateTypeDocument, voided.ID, domain.EventTypeDocumentVoided, documentPayload(&voided), now); err != nil {
			return err
		}
		if err := uc.poster.audit(ctx, tx, domain.AuditActionDocumentVoid, string(voided.Kind), voided.ID, &before, &voided, now); err != nil {
			return err
		}

		result, entries = &voided, posted
		return nil
	})

	uc.poster.observe(operation, start, err, entries...)
	if err != nil {
		return nil, err
	}

	if m := uc.poster.Metrics; m != nil {
		m.DocumentsVoided.WithLabelValues(string(result.Kind)).Inc()
	}

	return result, nil
}

// DeleteDocument always fails for stored documents: posted documents are
// voided instead.
func (uc *DocumentUseCase) DeleteDocument(ctx context.Context, id string) error {
	if _, err := uc.docRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrDocumentPosted
}

// GetDocument retrieves a document by ID.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return uc.docRepo.GetByID(ctx, id)
}

// ListDocuments lists a company's documents of one kind.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, companyID string, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error) {
	if !kind.IsValid() {
		return nil, domain.ErrInvalidDocumentKind
	}
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.docRepo.ListByCompany(ctx, companyID, kind, limit, offset)
}

func (uc *DocumentUseCase) prepare(ctx context.Context, companyID string, kind domain.DocumentKind, input DocumentInput) (*domain.Document, error) {
	doc := &domain.Document{
		CompanyID:        companyID,
		Kind:             kind,
		ContactID:        input.ContactID,
		Number:           strings.TrimSpace(input.Number),
		IssueDate:        input.IssueDate,
		Currency:         domain.NormalizeCurrency(input.Currency),
		Lines:            append([]domain.DocumentLine(nil), input.Lines...),
		TaxAmount:        input.TaxAmount,
		TaxAccountID:     input.TaxAccountID,
		ControlAccountID: input.ControlAccountID,
	}
	doc.DueDate = input.DueDate
	if doc.IssueDate.IsZero() {
		doc.IssueDate = time.Now().UTC()
	}

	if doc.ContactID == "" {
		return nil, domain.ErrContactNotFound
	}
	if err := domain.ValidateCurrency(doc.Currency); err != nil {
		return nil, err
	}
	if len(doc.Lines) == 0 {
		return nil, domain.ErrTooFewLines
	}
	for _, l := range doc.Lines {
		if err := domain.ValidateAmount(l.Amount, doc.Currency); err != nil {
			return nil, fmt.Errorf("line %q: %w", l.Description, err)
		}
	}
	if doc.TaxAmount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if err := domain.CheckPrecision(doc.TaxAmount, doc.Currency); err != nil {
		return nil, err
	}
	doc.ComputeTotal()

	company, err := uc.poster.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	rate, err := uc.rates.Resolve(ctx, doc.Currency, company.BaseCurrency, input.ExchangeRate, doc.IssueDate)
	if err != nil {
		return nil, err
	}
	doc.ExchangeRate = rate

	return doc, nil
}

// apply moves the ledger and contact totals from old to next. old is nil on
// create and next is nil on void.
func (uc *DocumentUseCase) apply(ctx context.Context, tx Transaction, old, next *domain.Document, now time.Time) ([]*domain.JournalEntry, error) {
	var companyID, oldContact, newContact string
	if old != nil {
		companyID, oldContact = old.CompanyID, old.ContactID
	}
	if next != nil {
		companyID, newContact = next.CompanyID, next.ContactID
	}

	contacts, err := lockContacts(ctx, tx, uc.contactRepo, uniqueSorted(oldContact, newContact))
	if err != nil {
		return nil, err
	}
	if next != nil {
		contact := contacts[newContact]
		if err := domain.EnsureSameCompany(companyID, contact.CompanyID); err != nil {
			return nil, err
		}
		if contact.Kind != next.Kind.ContactKind() {
			return nil, domain.ErrContactKindMismatch
		}
	}

	company, err := uc.poster.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var (
		lines   []domain.PostingLine
		skipNew bool
	)
	if next != nil {
		if err := uc.resolveAccounts(ctx, tx, next); err != nil {
			if !uc.poster.skipMissing(err, next.Kind.SourceType(), next.ID) {
				return nil, err
			}
			skipNew = true
		}

		lines, err = next.PostingLines(company.BaseCurrency)
		if err != nil {
			return nil, err
		}
		next.TotalBaseCurrency = lines[0].Amount
		if skipNew {
			lines = nil
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
			entry, err := uc.poster.post(ctx, tx, accounts, postingRequest{
				CompanyID:  next.CompanyID,
				EntryDate:  next.IssueDate,
				SourceType: next.Kind.SourceType(),
				SourceID:   next.ID,
				Memo:       fmt.Sprintf("%s %s", strings.ToUpper(string(next.Kind[:1]))+string(next.Kind[1:]), next.Number),
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

	deltas := make(map[string]decimal.Decimal, 2)
	if old != nil {
		deltas[oldContact] = deltas[oldContact].Sub(old.OutstandingDelta())
	}
	if next != nil {
		deltas[newContact] = deltas[newContact].Add(next.OutstandingDelta())
	}
	if err := adjustOutstanding(ctx, tx, uc.contactRepo, contacts, deltas, now); err != nil {
		return nil, err
	}

	return posted, nil
}

// resolveAccounts fills in default control, tax and line accounts.
func (uc *DocumentUseCase) resolveAccounts(ctx context.Context, tx Transaction, d *domain.Document) error {
	control, err := uc.poster.resolveAccountID(ctx, tx, d.CompanyID, d.ControlAccountID, d.Kind.ControlCategory())
	if err != nil {
		return err
	}
	d.ControlAccountID = control

	if d.TaxAmount.IsPositive() {
		tax, err := uc.poster.resolveAccountID(ctx, tx, d.CompanyID, d.TaxAccountID, d.Kind.TaxCategory())
		if err != nil {
			return err
		}
		d.TaxAccountID = tax
	}

	lineCategory := domain.CategoryRevenue
	if d.Kind == domain.DocumentBill {
		lineCategory = domain.CategoryExpense
	}
	for i := range d.Lines {
		id, err := uc.poster.resolveAccountID(ctx, tx, d.CompanyID, d.Lines[i].AccountID, lineCategory)
		if err != nil {
			return err
		}
		d.Lines[i].AccountID = id
	}

	return nil
}

func documentResource(kind domain.DocumentKind) string {
	if kind == domain.DocumentBill {
		return ResourceBill
	}
	return ResourceInvoice
}

func defaultDocumentNumber(kind domain.DocumentKind, id string) string {
	prefix := "INV-"
	if kind == domain.DocumentBill {
		prefix = "BILL-"
	}
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return prefix + id
}

func documentPayload(d *domain.Document) map[string]any {
	return map[string]any{
		"document_id":         d.ID,
		"kind":                string(d.Kind),
		"number":              d.Number,
		"contact_id":          d.ContactID,
		"currency":            d.Currency,
		"total_amount":        d.TotalAmount.String(),
		"total_base_currency": d.TotalBaseCurrency.String(),
		"amount_paid":         d.AmountPaid.String(),
		"balance_due":         d.BalanceDue.String(),
		"status":              string(d.Status),
		"journal_entry_id":    derefOr(d.JournalEntryID),
		"version":             d.Version,
	}
}

// lockContacts locks ids in order and fails when any is missing.
func lockContacts(ctx context.Context, tx Transaction, repo ContactRepository, ids []string) (map[string]*domain.Contact, error) {
	contacts := make(map[string]*domain.Contact, len(ids))
	if len(ids) == 0 {
		return contacts, nil
	}

	locked, err := repo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	if len(locked) != len(ids) {
		return nil, domain.ErrContactNotFound
	}
	for _, c := range locked {
		contacts[c.ID] = c
	}

	return contacts, nil
}

// adjustOutstanding applies non-zero deltas to contact outstanding totals.
func adjustOutstanding(ctx context.Context, tx Transaction, repo ContactRepository, contacts map[string]*domain.Contact, deltas map[string]decimal.Decimal, now time.Time) error {
	for _, id := range uniqueSorted(mapKeys(deltas)...) {
		delta := deltas[id]
		if delta.IsZero() {
			continue
		}
		contact, ok := contacts[id]
		if !ok {
			return domain.ErrContactNotFound
		}
		contact.TotalOutstanding = contact.TotalOutstanding.Add(delta)
		contact.Version++
		contact.UpdatedAt = now
		if err := repo.Update(ctx, tx, contact); err != nil {
			return err
		}
	}

	return nil
}
