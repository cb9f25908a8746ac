package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/erpledger/internal/adapter/repository/memory"
	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%06d", g.n)
}

// ledgerFixture wires every use case to one in-memory store and seeds a
// USD company with a default chart of accounts.
type ledgerFixture struct {
	store *memory.Store
	kv    *memory.KV
	deps  usecase.PostingDeps

	paymentRepo *memory.PaymentRepository
	docRepo     *memory.DocumentRepository
	contactRepo *memory.ContactRepository

	companies      *usecase.CompanyUseCase
	accounts       *usecase.AccountUseCase
	payments       *usecase.PaymentUseCase
	documents      *usecase.DocumentUseCase
	contacts       *usecase.ContactUseCase
	journal        *usecase.JournalUseCase
	ledger         *usecase.LedgerUseCase
	reconciliation *usecase.ReconciliationUseCase
	rates          *usecase.ExchangeRateUseCase
	recordLocks    *usecase.RecordLockUseCase

	company    *domain.Company
	bank       *domain.Account
	ar         *domain.Account
	ap         *domain.Account
	capital    *domain.Account
	revenue    *domain.Account
	expense    *domain.Account
	taxPayable *domain.Account
}

type fixtureOption func(*usecase.PostingDeps)

func withSkipPolicy() fixtureOption {
	return func(d *usecase.PostingDeps) { d.MissingAccountPolicy = usecase.MissingAccountSkip }
}

func newBareFixture(t *testing.T, opts ...fixtureOption) *ledgerFixture {
	t.Helper()

	store := memory.New()
	kv := memory.NewKV()
	locks := memory.NewRecordLockStore(kv)
	ids := &seqIDs{}

	deps := usecase.PostingDeps{
		TxManager:   store,
		CompanyRepo: memory.NewCompanyRepository(store),
		AccountRepo: memory.NewAccountRepository(store),
		JournalRepo: memory.NewJournalRepository(store),
		OutboxRepo:  memory.NewOutboxRepository(store),
		AuditRepo:   memory.NewAuditRepository(store),
		IDGen:       ids,
		Logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	paymentRepo := memory.NewPaymentRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	contactRepo := memory.NewContactRepository(store)

	rates := usecase.NewExchangeRateUseCase(memory.NewExchangeRateRepository(store), kv, ids, time.Minute, nil, zerolog.Nop())
	ledger := usecase.NewLedgerUseCase(memory.NewLedgerRepository(store), nil, zerolog.Nop())

	return &ledgerFixture{
		store:          store,
		kv:             kv,
		deps:           deps,
		paymentRepo:    paymentRepo,
		docRepo:        docRepo,
		contactRepo:    contactRepo,
		companies:      usecase.NewCompanyUseCase(deps),
		accounts:       usecase.NewAccountUseCase(deps),
		payments:       usecase.NewPaymentUseCase(deps, paymentRepo, docRepo, contactRepo, rates, locks),
		documents:      usecase.NewDocumentUseCase(deps, docRepo, contactRepo, rates, locks),
		contacts:       usecase.NewContactUseCase(deps, contactRepo, locks),
		journal:        usecase.NewJournalUseCase(deps, locks),
		ledger:         ledger,
		reconciliation: usecase.NewReconciliationUseCase(deps.AccountRepo, deps.JournalRepo, ledger, nil, zerolog.Nop()),
		rates:          rates,
		recordLocks:    usecase.NewRecordLockUseCase(locks, time.Minute),
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *ledgerFixture {
	t.Helper()

	f := newBareFixture(t, opts...)
	f.company = f.createCompany(t, "Acme", "USD")
	f.bank = f.createAccount(t, "1000", "Bank", domain.AccountTypeAsset, domain.CategoryBank)
	f.ar = f.createAccount(t, "1200", "Accounts Receivable", domain.AccountTypeAsset, domain.CategoryAccountsReceivable)
	f.ap = f.createAccount(t, "2000", "Accounts Payable", domain.AccountTypeLiability, domain.CategoryAccountsPayable)
	f.taxPayable = f.createAccount(t, "2200", "Sales Tax Payable", domain.AccountTypeLiability, domain.CategoryTaxPayable)
	f.capital = f.createAccount(t, "3000", "Owner's Capital", domain.AccountTypeEquity, domain.CategoryOwnersCapital)
	f.revenue = f.createAccount(t, "4000", "Sales", domain.AccountTypeRevenue, domain.CategoryRevenue)
	f.expense = f.createAccount(t, "5000", "Expenses", domain.AccountTypeExpense, domain.CategoryExpense)
	return f
}

func (f *ledgerFixture) createCompany(t *testing.T, name, currency string) *domain.Company {
	t.Helper()
	c, err := f.companies.CreateCompany(context.Background(), usecase.CreateCompanyInput{Name: name, BaseCurrency: currency})
	require.NoError(t, err)
	return c
}

func (f *ledgerFixture) createAccount(t *testing.T, code, name string, typ domain.AccountType, cat domain.AccountCategory) *domain.Account {
	t.Helper()
	a, err := f.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: f.company.ID,
		Type:      typ,
		Category:  cat,
		Name:      name,
		Code:      code,
	})
	require.NoError(t, err)
	return a
}

func (f *ledgerFixture) createContact(t *testing.T, kind domain.ContactKind, name string) *domain.Contact {
	t.Helper()
	c, err := f.contacts.CreateContact(context.Background(), usecase.CreateContactInput{
		CompanyID: f.company.ID,
		Kind:      kind,
		Name:      name,
	})
	require.NoError(t, err)
	return c
}

func (f *ledgerFixture) createInvoice(t *testing.T, customerID, amount string) *domain.Document {
	t.Helper()
	doc, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
		CompanyID: f.company.ID,
		Kind:      domain.DocumentInvoice,
		DocumentInput: usecase.DocumentInput{
			ContactID: customerID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Description: "Consulting", Amount: dec(amount)}},
		},
	})
	require.NoError(t, err)
	return doc
}

func (f *ledgerFixture) createBill(t *testing.T, vendorID, amount string) *domain.Document {
	t.Helper()
	doc, err := f.documents.CreateDocument(context.Background(), usecase.CreateDocumentInput{
		CompanyID: f.company.ID,
		Kind:      domain.DocumentBill,
		DocumentInput: usecase.DocumentInput{
			ContactID: vendorID,
			Currency:  "USD",
			Lines:     []domain.DocumentLine{{Description: "Hosting", Amount: dec(amount)}},
		},
	})
	require.NoError(t, err)
	return doc
}

func (f *ledgerFixture) receive(t *testing.T, customerID, amount string, invoiceID *string) *domain.Payment {
	t.Helper()
	p, err := f.payments.CreatePayment(context.Background(), usecase.CreatePaymentInput{
		CompanyID: f.company.ID,
		PaymentInput: usecase.PaymentInput{
			Type:      domain.PaymentReceived,
			ContactID: customerID,
			Currency:  "USD",
			Amount:    dec(amount),
			InvoiceID: invoiceID,
		},
	})
	require.NoError(t, err)
	return p
}

func (f *ledgerFixture) balance(t *testing.T, acc *domain.Account) decimal.Decimal {
	t.Helper()
	got, err := f.deps.AccountRepo.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	return got.Balance
}

func (f *ledgerFixture) entry(t *testing.T, id *string) *domain.JournalEntry {
	t.Helper()
	require.NotNil(t, id, "expected a journal entry id")
	e, err := f.journal.GetEntry(context.Background(), *id)
	require.NoError(t, err)
	return e
}

func (f *ledgerFixture) outstanding(t *testing.T, contactID string) decimal.Decimal {
	t.Helper()
	c, err := f.contacts.GetContact(context.Background(), contactID)
	require.NoError(t, err)
	return c.TotalOutstanding
}

func (f *ledgerFixture) entryCount(t *testing.T) int {
	t.Helper()
	entries, err := f.journal.ListEntries(context.Background(), f.company.ID, 1000, 0)
	require.NoError(t, err)
	return len(entries)
}

// requireReconciled asserts that every account matches its journal lines
// and the whole ledger balances.
func (f *ledgerFixture) requireReconciled(t *testing.T) {
	t.Helper()
	report, err := f.reconciliation.GenerateReconciliationReport(context.Background(), f.company.ID)
	require.NoError(t, err)
	require.Empty(t, report.Discrepancies)
	require.True(t, report.LedgerConsistent)
}

func asUser(id string) context.Context {
	return domain.ContextWithUser(context.Background(), &domain.User{ID: id, Role: domain.RoleOperator, Active: true})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
