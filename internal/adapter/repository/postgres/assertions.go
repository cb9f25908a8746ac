package postgres

import "github.com/iho/erpledger/internal/usecase"

var (
	_ usecase.TransactionManager     = (*TxManager)(nil)
	_ usecase.Retrier                = (*Retrier)(nil)
	_ usecase.IDGenerator            = (*ULIDGenerator)(nil)
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
)
