package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultRecordLockTTL is how long an advisory edit lock lives without renewal
	DefaultRecordLockTTL = 5 * time.Minute

	// DefaultRateCacheTTL is how long a resolved exchange rate stays cached
	DefaultRateCacheTTL = 10 * time.Minute
)

// MissingAccountPolicy decides what happens when a posting cannot resolve
// one of its accounts.
type MissingAccountPolicy string

const (
	// MissingAccountReject fails the whole operation.
	MissingAccountReject MissingAccountPolicy = "reject"
	// MissingAccountSkip stores the document without a journal entry.
	MissingAccountSkip MissingAccountPolicy = "skip"
)

// Resource names used for record locks and audit logs.
const (
	ResourcePayment      = "payment"
	ResourceInvoice      = "invoice"
	ResourceBill         = "bill"
	ResourceContact      = "contact"
	ResourceJournalEntry = "journal_entry"
	ResourceAccount      = "account"
	ResourceCompany      = "company"
)
