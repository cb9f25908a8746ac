package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// CompanyRepository defines data access for companies.
type CompanyRepository interface {
	Create(ctx context.Context, tx Transaction, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	// NextEntrySequence allocates the next journal number of a company.
	NextEntrySequence(ctx context.Context, tx Transaction, companyID string) (int64, error)
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// Create returns domain.ErrDuplicateAccount when the code is taken.
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// FindByCategory returns the active account of the category with the lowest code.
	FindByCategory(ctx context.Context, tx Transaction, companyID string, category domain.AccountCategory) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error)
}

// JournalRepository defines data access for journal entries and lines.
type JournalRepository interface {
	// Create inserts the entry and its lines. Returns domain.ErrAlreadyReversed
	// when the entry reverses an entry that already has a reversal.
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.JournalEntry, error)
	ListLinesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.JournalLine, error)
	SumByAccount(ctx context.Context, accountID string) (debits, credits decimal.Decimal, err error)
	TrialBalance(ctx context.Context, companyID string, asOf time.Time) ([]*domain.TrialBalanceLine, error)
}

// PaymentRepository defines data access for payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Payment, error)
	Update(ctx context.Context, tx Transaction, payment *domain.Payment) error
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Payment, error)
}

// DocumentRepository defines data access for invoices and bills.
type DocumentRepository interface {
	Create(ctx context.Context, tx Transaction, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// GetByIDsForUpdate locks the documents in id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Document, error)
	Update(ctx context.Context, tx Transaction, doc *domain.Document) error
	ListByCompany(ctx context.Context, companyID string, kind domain.DocumentKind, limit, offset int) ([]*domain.Document, error)
}

// ContactRepository defines data access for customers and vendors.
type ContactRepository interface {
	Create(ctx context.Context, tx Transaction, contact *domain.Contact) error
	GetByID(ctx context.Context, id string) (*domain.Contact, error)
	// GetByIDsForUpdate locks the contacts in id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Contact, error)
	Update(ctx context.Context, tx Transaction, contact *domain.Contact) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Contact, error)
}

// ExchangeRateRepository defines data access for exchange rates.
type ExchangeRateRepository interface {
	Create(ctx context.Context, rate *domain.ExchangeRate) error
	// Latest returns the newest rate effective at or before at.
	Latest(ctx context.Context, baseCurrency, quoteCurrency string, at time.Time) (*domain.ExchangeRate, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}
