package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse builds a ListResponse, converting each item with conv.
func NewListResponse[S, T any](items []S, conv func(S) T, limit, offset int) ListResponse[T] {
	data := make([]T, len(items))
	for i, item := range items {
		data[i] = conv(item)
	}
	return ListResponse[T]{Data: data, Limit: limit, Offset: offset}
}

// CompanyResponse represents a company in API responses.
type CompanyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CompanyFromDomain converts domain company to response.
func CompanyFromDomain(c *domain.Company) *CompanyResponse {
	return &CompanyResponse{
		ID:           c.ID,
		Name:         c.Name,
		BaseCurrency: c.BaseCurrency,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		CompanyID: a.CompanyID,
		Type:      string(a.Type),
		Category:  string(a.Category),
		Name:      a.Name,
		Code:      a.Code,
		Balance:   a.Balance,
		Version:   a.Version,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// JournalLineResponse represents a journal line in API responses.
type JournalLineResponse struct {
	ID                     string          `json:"id"`
	EntryID                string          `json:"entry_id"`
	LineNo                 int             `json:"line_no"`
	AccountID              string          `json:"account_id"`
	AccountCode            string          `json:"account_code,omitempty"`
	AccountName            string          `json:"account_name,omitempty"`
	Description            string          `json:"description,omitempty"`
	Debit                  decimal.Decimal `json:"debit"`
	Credit                 decimal.Decimal `json:"credit"`
	AccountPreviousBalance decimal.Decimal `json:"account_previous_balance"`
	AccountCurrentBalance  decimal.Decimal `json:"account_current_balance"`
	AccountVersion         int64           `json:"account_version"`
}

// JournalLineFromDomain converts a domain journal line to response.
func JournalLineFromDomain(l *domain.JournalLine) *JournalLineResponse {
	return &JournalLineResponse{
		ID:                     l.ID,
		EntryID:                l.EntryID,
		LineNo:                 l.LineNo,
		AccountID:              l.AccountID,
		AccountCode:            l.AccountCode,
		AccountName:            l.AccountName,
		Description:            l.Description,
		Debit:                  l.Debit,
		Credit:                 l.Credit,
		AccountPreviousBalance: l.AccountPreviousBalance,
		AccountCurrentBalance:  l.AccountCurrentBalance,
		AccountVersion:         l.AccountVersion,
	}
}

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	ID                string                 `json:"id"`
	CompanyID         string                 `json:"company_id"`
	EntryNumber       string                 `json:"entry_number"`
	EntryDate         string                 `json:"entry_date"`
	SourceType        string                 `json:"source_type"`
	SourceID          string                 `json:"source_id,omitempty"`
	Memo              string                 `json:"memo,omitempty"`
	Status            string                 `json:"status"`
	TotalDebits       decimal.Decimal        `json:"total_debits"`
	TotalCredits      decimal.Decimal        `json:"total_credits"`
	ReversesEntryID   *string                `json:"reverses_entry_id,omitempty"`
	ReversedByEntryID *string                `json:"reversed_by_entry_id,omitempty"`
	PostedBy          string                 `json:"posted_by"`
	PostedAt          time.Time              `json:"posted_at"`
	Lines             []*JournalLineResponse `json:"lines"`
}

// JournalEntryFromDomain converts domain journal entry to response.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	lines := make([]*JournalLineResponse, len(e.Lines))
	for i := range e.Lines {
		lines[i] = JournalLineFromDomain(&e.Lines[i])
	}

	return &JournalEntryResponse{
		ID:                e.ID,
		CompanyID:         e.CompanyID,
		EntryNumber:       e.EntryNumber,
		EntryDate:         e.EntryDate.Format(DateLayout),
		SourceType:        string(e.SourceType),
		SourceID:          e.SourceID,
		Memo:              e.Memo,
		Status:            string(e.Status),
		TotalDebits:       e.TotalDebits,
		TotalCredits:      e.TotalCredits,
		ReversesEntryID:   e.ReversesEntryID,
		ReversedByEntryID: e.ReversedByEntryID,
		PostedBy:          e.PostedBy,
		PostedAt:          e.PostedAt,
		Lines:             lines,
	}
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Type               string          `json:"type"`
	ContactID          string          `json:"contact_id"`
	PaymentDate        string          `json:"payment_date"`
	Currency           string          `json:"currency"`
	Amount             decimal.Decimal `json:"amount"`
	ExchangeRate       decimal.Decimal `json:"exchange_rate"`
	AmountBaseCurrency decimal.Decimal `json:"amount_base_currency"`
	BankAccountID      string          `json:"bank_account_id"`
	ARAPAccountID      string          `json:"ar_ap_account_id,omitempty"`
	JournalEntryID     *string         `json:"journal_entry_id,omitempty"`
	InvoiceID          *string         `json:"invoice_id,omitempty"`
	BillID             *string         `json:"bill_id,omitempty"`
	Reference          string          `json:"reference,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Status             string          `json:"status"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaymentFromDomain converts domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                 p.ID,
		CompanyID:          p.CompanyID,
		Type:               string(p.Type),
		ContactID:          p.ContactID,
		PaymentDate:        p.PaymentDate.Format(DateLayout),
		Currency:           p.Currency,
		Amount:             p.Amount,
		ExchangeRate:       p.ExchangeRate,
		AmountBaseCurrency: p.AmountBaseCurrency,
		BankAccountID:      p.BankAccountID,
		ARAPAccountID:      p.ARAPAccountID,
		JournalEntryID:     p.JournalEntryID,
		InvoiceID:          p.InvoiceID,
		BillID:             p.BillID,
		Reference:          p.Reference,
		Notes:              p.Notes,
		Status:             string(p.Status),
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// DocumentLineResponse represents a document line in API responses.
type DocumentLineResponse struct {
	AccountID   string          `json:"account_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentResponse represents an invoice or bill in API responses.
type DocumentResponse struct {
	ID                string                 `json:"id"`
	CompanyID         string                 `json:"company_id"`
	Kind              string                 `json:"kind"`
	ContactID         string                 `json:"contact_id"`
	Number            string                 `json:"number,omitempty"`
	IssueDate         string                 `json:"issue_date"`
	DueDate           *string                `json:"due_date,omitempty"`
	Currency          string                 `json:"currency"`
	ExchangeRate      decimal.Decimal        `json:"exchange_rate"`
	Lines             []DocumentLineResponse `json:"lines"`
	TaxAmount         decimal.Decimal        `json:"tax_amount"`
	TaxAccountID      string                 `json:"tax_account_id,omitempty"`
	ControlAccountID  string                 `json:"control_account_id,omitempty"`
	TotalAmount       decimal.Decimal        `json:"total_amount"`
	AmountPaid        decimal.Decimal        `json:"amount_paid"`
	BalanceDue        decimal.Decimal        `json:"balance_due"`
	TotalBaseCurrency decimal.Decimal        `json:"total_base_currency"`
	Status            string                 `json:"status"`
	JournalEntryID    *string                `json:"journal_entry_id,omitempty"`
	Version           int64                  `json:"version"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// DocumentFromDomain converts domain document to response.
func DocumentFromDomain(d *domain.Document) *DocumentResponse {
	lines := make([]DocumentLineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = DocumentLineResponse{AccountID: l.AccountID, Description: l.Description, Amount: l.Amount}
	}

	var due *string
	if d.DueDate != nil {
		s := d.DueDate.Format(DateLayout)
		due = &s
	}

	return &DocumentResponse{
		ID:                d.ID,
		CompanyID:         d.CompanyID,
		Kind:              string(d.Kind),
		ContactID:         d.ContactID,
		Number:            d.Number,
		IssueDate:         d.IssueDate.Format(DateLayout),
		DueDate:           due,
		Currency:          d.Currency,
		ExchangeRate:      d.ExchangeRate,
		Lines:             lines,
		TaxAmount:         d.TaxAmount,
		TaxAccountID:      d.TaxAccountID,
		ControlAccountID:  d.ControlAccountID,
		TotalAmount:       d.TotalAmount,
		AmountPaid:        d.AmountPaid,
		BalanceDue:        d.BalanceDue,
		TotalBaseCurrency: d.TotalBaseCurrency,
		Status:            string(d.Status),
		JournalEntryID:    d.JournalEntryID,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// ContactResponse represents a contact in API responses.
type ContactResponse struct {
	ID                    string          `json:"id"`
	CompanyID             string          `json:"company_id"`
	Kind                  string          `json:"kind"`
	Name                  string          `json:"name"`
	Email                 string          `json:"email,omitempty"`
	Currency              string          `json:"currency"`
	OpeningBalance        decimal.Decimal `json:"opening_balance"`
	OpeningBalanceDate    string          `json:"opening_balance_date"`
	OpeningBalanceEntryID *string         `json:"opening_balance_entry_id,omitempty"`
	TotalOutstanding      decimal.Decimal `json:"total_outstanding"`
	Version               int64           `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ContactFromDomain converts domain contact to response.
func ContactFromDomain(c *domain.Contact) *ContactResponse {
	return &ContactResponse{
		ID:                    c.ID,
		CompanyID:             c.CompanyID,
		Kind:                  string(c.Kind),
		Name:                  c.Name,
		Email:                 c.Email,
		Currency:              c.Currency,
		OpeningBalance:        c.OpeningBalance,
		OpeningBalanceDate:    c.OpeningBalanceDate.Format(DateLayout),
		OpeningBalanceEntryID: c.OpeningBalanceEntryID,
		TotalOutstanding:      c.TotalOutstanding,
		Version:               c.Version,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// ExchangeRateResponse represents a stored or resolved rate.
type ExchangeRateResponse struct {
	ID            string          `json:"id,omitempty"`
	BaseCurrency  string          `json:"base_currency"`
	QuoteCurrency string          `json:"quote_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveAt   time.Time       `json:"effective_at"`
}

// ExchangeRateFromDomain converts domain exchange rate to response.
func ExchangeRateFromDomain(r *domain.ExchangeRate) *ExchangeRateResponse {
	return &ExchangeRateResponse{
		ID:            r.ID,
		BaseCurrency:  r.BaseCurrency,
		QuoteCurrency: r.QuoteCurrency,
		Rate:          r.Rate,
		EffectiveAt:   r.EffectiveAt,
	}
}

// RecordLockResponse describes an advisory edit lock.
type RecordLockResponse struct {
	Resource  string     `json:"resource"`
	ID        string     `json:"id"`
	Owner     string     `json:"owner,omitempty"`
	Locked    bool       `json:"locked"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RecordLockFromDomain converts a held lock to response.
func RecordLockFromDomain(l *domain.RecordLock) *RecordLockResponse {
	expires := l.ExpiresAt
	return &RecordLockResponse{
		Resource:  l.Resource,
		ID:        l.ID,
		Owner:     l.Owner,
		Locked:    true,
		ExpiresAt: &expires,
	}
}

// TrialBalanceLineResponse is one account row of a trial balance.
type TrialBalanceLineResponse struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	Debits      decimal.Decimal `json:"debits"`
	Credits     decimal.Decimal `json:"credits"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceResponse represents a company trial balance.
type TrialBalanceResponse struct {
	CompanyID    string                     `json:"company_id"`
	AsOf         string                     `json:"as_of"`
	Lines        []TrialBalanceLineResponse `json:"lines"`
	TotalDebits  decimal.Decimal            `json:"total_debits"`
	TotalCredits decimal.Decimal            `json:"total_credits"`
	Balanced     bool                       `json:"balanced"`
}

// TrialBalanceFromUseCase converts a trial balance to response.
func TrialBalanceFromUseCase(tb *usecase.TrialBalance) *TrialBalanceResponse {
	lines := make([]TrialBalanceLineResponse, len(tb.Lines))
	for i, l := range tb.Lines {
		lines[i] = TrialBalanceLineResponse{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			AccountType: string(l.AccountType),
			Debits:      l.Debits,
			Credits:     l.Credits,
			Balance:     l.Balance,
		}
	}

	return &TrialBalanceResponse{
		CompanyID:    tb.CompanyID,
		AsOf:         tb.AsOf.Format(DateLayout),
		Lines:        lines,
		TotalDebits:  tb.TotalDebits,
		TotalCredits: tb.TotalCredits,
		Balanced:     tb.Balanced,
	}
}

// ReconciliationResponse is the result of reconciling one account.
type ReconciliationResponse struct {
	AccountID         string          `json:"account_id"`
	AccountCode       string          `json:"account_code"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	Reconciled        bool            `json:"reconciled"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		AccountCode:       r.AccountCode,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Reconciled:        r.IsReconciled,
		CheckedAt:         r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a company reconciliation.
type ReconciliationReportResponse struct {
	CompanyID          string                    `json:"company_id"`
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	LedgerConsistent   bool                      `json:"ledger_consistent"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		CompanyID:          r.CompanyID,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
}

// ConsistencyResponse reports the global debit/credit check.
type ConsistencyResponse struct {
	Status       string          `json:"status"`
	Consistent   bool            `json:"consistent"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
}

// AuditLogResponse represents an audit log row.
type AuditLogResponse struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	IPAddress    string      `json:"ip_address,omitempty"`
	UserAgent    string      `json:"user_agent,omitempty"`
	RequestID    string      `json:"request_id,omitempty"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogFromDomain converts an audit log to response.
func AuditLogFromDomain(l *domain.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		IPAddress:    l.IPAddress,
		UserAgent:    l.UserAgent,
		RequestID:    l.RequestID,
		BeforeState:  l.BeforeState,
		AfterState:   l.AfterState,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
		CreatedAt:    l.CreatedAt,
	}
}

// UserResponse describes the authenticated caller.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
