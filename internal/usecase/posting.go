package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// PostingDeps bundles the collaborators shared by every use case that
// writes to the ledger.
type PostingDeps struct {
	TxManager            TransactionManager
	Retrier              Retrier
	CompanyRepo          CompanyRepository
	AccountRepo          AccountRepository
	JournalRepo          JournalRepository
	OutboxRepo           OutboxRepository
	AuditRepo            AuditRepository
	IDGen                IDGenerator
	Metrics              *metrics.Metrics
	Logger               zerolog.Logger
	MissingAccountPolicy MissingAccountPolicy
}

// ledgerPoster turns posting lines into journal entries and applies them to
// account balances. Every method runs inside a caller-owned transaction.
type ledgerPoster struct {
	PostingDeps
}

func newLedgerPoster(deps PostingDeps) *ledgerPoster {
	if deps.MissingAccountPolicy == "" {
		deps.MissingAccountPolicy = MissingAccountReject
	}
	return &ledgerPoster{PostingDeps: deps}
}

// accountSet holds the accounts locked by the current transaction.
type accountSet map[string]*domain.Account

type postingRequest struct {
	CompanyID  string
	EntryDate  time.Time
	SourceType domain.SourceType
	SourceID   string
	Memo       string
	Lines      []domain.PostingLine
	PostedBy   string
	Reverses   *domain.JournalEntry
}

// inTx runs fn in a transaction with a timeout, retrying the whole
// transaction on transient database errors.
func (p *ledgerPoster) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := p.TxManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if p.Retrier == nil {
		return attempt()
	}
	return p.Retrier.Retry(ctx, attempt)
}

// lockAccounts locks every non-empty id in sorted order and checks that all
// of them exist and belong to companyID.
func (p *ledgerPoster) lockAccounts(ctx context.Context, tx Transaction, companyID string, groups ...[]string) (accountSet, error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, group := range groups {
		for _, id := range group {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)

	if len(ids) == 0 {
		return accountSet{}, nil
	}

	accounts, err := p.AccountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	set := make(accountSet, len(accounts))
	for _, acc := range accounts {
		if err := domain.EnsureSameCompany(companyID, acc.CompanyID); err != nil {
			return nil, fmt.Errorf("account %s: %w", acc.ID, err)
		}
		set[acc.ID] = acc
	}

	return set, nil
}

// resolveAccountID returns explicit when set, otherwise the company's
// default account of the category.
func (p *ledgerPoster) resolveAccountID(ctx context.Context, tx Transaction, companyID, explicit string, category domain.AccountCategory) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	acc, err := p.AccountRepo.FindByCategory(ctx, tx, companyID, category)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", fmt.Errorf("%w: no %s account", domain.ErrAccountNotResolved, category)
		}
		return "", err
	}

	return acc.ID, nil
}

// skipMissing reports whether err is an unresolved account that the
// configured policy allows to skip.
func (p *ledgerPoster) skipMissing(err error, source domain.SourceType, sourceID string) bool {
	if !errors.Is(err, domain.ErrAccountNotResolved) || p.MissingAccountPolicy != MissingAccountSkip {
		return false
	}

	p.Logger.Warn().
		Err(err).
		Str("source_type", string(source)).
		Str("source_id", sourceID).
		Msg("posting skipped: account not resolved")

	if p.Metrics != nil {
		p.Metrics.PostingsSkipped.WithLabelValues(string(source)).Inc()
	}

	return true
}

// loadSuperseded reads the entry an edit replaces. A missing entry is logged
// and reported as nil so the edit can proceed.
func (p *ledgerPoster) loadSuperseded(ctx context.Context, tx Transaction, entryID *string) (*domain.JournalEntry, error) {
	if entryID == nil || *entryID == "" {
		return nil, nil
	}

	entry, err := p.JournalRepo.GetByIDTx(ctx, tx, *entryID)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			p.Logger.Warn().Str("entry_id", *entryID).Msg("superseded journal entry not found, continuing")
			return nil, nil
		}
		return nil, err
	}

	if entry.ReversedByEntryID != nil {
		p.Logger.Warn().Str("entry_id", entry.ID).Msg("superseded journal entry already reversed, continuing")
		return nil, nil
	}

	return entry, nil
}

// supersededAccounts returns the accounts of entry, or nil.
func supersededAccounts(entry *domain.JournalEntry) []string {
	if entry == nil {
		return nil
	}
	return entry.AccountIDs()
}

// post persists a journal entry for req and applies every line to the
// running balance of its account.
func (p *ledgerPoster) post(ctx context.Context, tx Transaction, accounts accountSet, req postingRequest, now time.Time) (*domain.JournalEntry, error) {
	if err := domain.CheckBalanced(req.Lines); err != nil {
		return nil, err
	}

	seq, err := p.CompanyRepo.NextEntrySequence(ctx, tx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	entry := &domain.JournalEntry{
		ID:          p.IDGen.Generate(),
		CompanyID:   req.CompanyID,
		EntryNumber: domain.FormatEntryNumber(seq),
		EntryDate:   req.EntryDate,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Memo:        req.Memo,
		Status:      domain.EntryStatusPosted,
		PostedBy:    req.PostedBy,
		PostedAt:    now,
		Lines:       make([]domain.JournalLine, 0, len(req.Lines)),
	}
	if req.Reverses != nil {
		entry.ReversesEntryID = &req.Reverses.ID
	}

	touched := make([]string, 0, len(req.Lines))
	for i, l := range req.Lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, l.AccountID)
		}
		if req.Reverses == nil && !acc.Active {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, acc.Code)
		}

		line := domain.JournalLine{
			ID:                     p.IDGen.Generate(),
			EntryID:                entry.ID,
			LineNo:                 i + 1,
			AccountID:              acc.ID,
			AccountName:            acc.Name,
			AccountCode:            acc.Code,
			Description:            l.Description,
			AccountPreviousBalance: acc.Balance,
		}

		if l.Side == domain.SideDebit {
			line.Debit = l.Amount
			acc.Balance = acc.ApplyDebit(l.Amount)
		} else {
			line.Credit = l.Amount
			acc.Balance = acc.ApplyCredit(l.Amount)
		}
		acc.Version++
		acc.UpdatedAt = now

		line.AccountCurrentBalance = acc.Balance
		line.AccountVersion = acc.Version
		entry.Lines = append(entry.Lines, line)
		touched = append(touched, acc.ID)
	}

	entry.ComputeTotals()
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := p.JournalRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	updated := make(map[string]bool, len(touched))
	for _, id := range touched {
		if updated[id] {
			continue
		}
		updated[id] = true

		acc := accounts[id]
		if err := p.AccountRepo.UpdateBalance(ctx, tx, id, acc.Balance, acc.Version, now); err != nil {
			return nil, err
		}
	}

	eventType := domain.EventTypeJournalPosted
	if req.Reverses != nil {
		eventType = domain.EventTypeJournalReversed
		req.Reverses.ReversedByEntryID = &entry.ID
	}
	if err := p.emit(ctx, tx, entry.CompanyID, domain.AggregateTypeJournalEntry, entry.ID, eventType, domain.JournalPostedPayload(entry), now); err != nil {
		return nil, err
	}

	p.Logger.Debug().
		Str("entry_id", entry.ID).
		Str("entry_number", entry.EntryNumber).
		Str("source_type", string(entry.SourceType)).
		Str("total", entry.TotalDebits.String()).
		Msg("journal entry posted")

	return entry, nil
}

// reverse appends an entry that offsets original line by line.
func (p *ledgerPoster) reverse(ctx context.Context, tx Transaction, accounts accountSet, original *domain.JournalEntry, postedBy string, now time.Time) (*domain.JournalEntry, error) {
	if original.IsReversal() {
		return nil, domain.ErrReversalOfReversal
	}
	if original.ReversedByEntryID != nil {
		return nil, domain.ErrAlreadyReversed
	}

	return p.post(ctx, tx, accounts, postingRequest{
		CompanyID:  original.CompanyID,
		EntryDate:  now,
		SourceType: original.SourceType,
		SourceID:   original.SourceID,
		Memo:       "Reversal of " + original.EntryNumber,
		Lines:      original.ReversalLines(),
		PostedBy:   postedBy,
		Reverses:   original,
	}, now)
}

// emit writes an outbox event in the current transaction.
func (p *ledgerPoster) emit(ctx context.Context, tx Transaction, companyID, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) error {
	if p.OutboxRepo == nil {
		return nil
	}

	return p.OutboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            p.IDGen.Generate(),
		CompanyID:     companyID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	})
}

// audit writes an audit log row in the current transaction.
func (p *ledgerPoster) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceType, resourceID string, before, after any, now time.Time) error {
	if p.AuditRepo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ID:           p.IDGen.Generate(),
		UserID:       domain.ActorID(ctx),
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}
	if before != nil {
		log.BeforeState = domain.MarshalState(before)
	}
	if after != nil {
		log.AfterState = domain.MarshalState(after)
	}
	if info, ok := domain.RequestInfoFromContext(ctx); ok {
		log.IPAddress = info.IPAddress
		log.UserAgent = info.UserAgent
		log.RequestID = info.RequestID
	}

	if err := p.AuditRepo.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if p.Metrics != nil {
		p.Metrics.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}

	return nil
}

// observe records the outcome of a posting operation.
func (p *ledgerPoster) observe(operation string, start time.Time, err error, entries ...*domain.JournalEntry) {
	if p.Metrics == nil {
		return
	}

	p.Metrics.PostingDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		p.Metrics.PostingErrors.WithLabelValues(operation).Inc()
		if errors.Is(err, domain.ErrVersionConflict) || errors.Is(err, domain.ErrRecordLocked) {
			p.Metrics.VersionConflicts.WithLabelValues(operation).Inc()
		}
		return
	}

	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if entry.IsReversal() {
			p.Metrics.EntriesReversed.WithLabelValues(string(entry.SourceType)).Inc()
			continue
		}
		p.Metrics.EntriesPosted.WithLabelValues(string(entry.SourceType)).Inc()
		p.Metrics.PostedAmount.WithLabelValues(string(entry.SourceType)).Observe(entry.TotalDebits.InexactFloat64())
	}
}

// checkRecordLock fails when another user holds the advisory lock on the
// record. Lock store errors are logged and do not block the edit.
func checkRecordLock(ctx context.Context, locks RecordLockStore, logger zerolog.Logger, resource, id string) error {
	if locks == nil {
		return nil
	}

	holder, err := locks.Holder(ctx, resource, id)
	if err != nil {
		logger.Warn().Err(err).Str("resource", resource).Str("id", id).Msg("record lock lookup failed")
		return nil
	}

	if holder != "" && holder != domain.ActorID(ctx) {
		return fmt.Errorf("%w: held by %s", domain.ErrRecordLocked, holder)
	}

	return nil
}

// checkVersion compares an optional expected version with the stored one.
func checkVersion(expected *int64, actual int64) error {
	if expected != nil && *expected != actual {
		return fmt.Errorf("%w: expected version %d, found %d", domain.ErrVersionConflict, *expected, actual)
	}
	return nil
}

func uniqueSorted(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
