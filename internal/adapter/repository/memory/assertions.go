package memory

import "github.com/iho/erpledger/internal/usecase"

// Compile-time interface assertions documenting which ports the store satisfies.
var (
	_ usecase.TransactionManager     = (*Store)(nil)
	_ usecase.CompanyRepository      = (*CompanyRepository)(nil)
	_ usecase.AccountRepository      = (*AccountRepository)(nil)
	_ usecase.JournalRepository      = (*JournalRepository)(nil)
	_ usecase.PaymentRepository      = (*PaymentRepository)(nil)
	_ usecase.DocumentRepository     = (*DocumentRepository)(nil)
	_ usecase.ContactRepository      = (*ContactRepository)(nil)
	_ usecase.ExchangeRateRepository = (*ExchangeRateRepository)(nil)
	_ usecase.LedgerRepository       = (*LedgerRepository)(nil)
	_ usecase.OutboxRepository       = (*OutboxRepository)(nil)
	_ usecase.AuditRepository        = (*AuditRepository)(nil)
	_ usecase.Cache                  = (*KV)(nil)
	_ usecase.IdempotencyStore       = (*IdempotencyStore)(nil)
	_ usecase.RecordLockStore        = (*RecordLockStore)(nil)
)
