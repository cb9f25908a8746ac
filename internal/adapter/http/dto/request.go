package dto

import (
	"fmt"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

// CreateCompanyRequest represents a request to create a company.
type CreateCompanyRequest struct {
	Name         string `json:"name"          validate:"required,max=200"`
	BaseCurrency string `json:"base_currency" validate:"required,len=3,alpha"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCompanyRequest) ToUseCaseInput() usecase.CreateCompanyInput {
	return usecase.CreateCompanyInput{
		Name:         r.Name,
		BaseCurrency: r.BaseCurrency,
	}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	Type      string `json:"type"       validate:"required,oneof=asset liability equity revenue expense"`
	Category  string `json:"category"   validate:"omitempty"`
	Name      string `json:"name"       validate:"required,max=255"`
	Code      string `json:"code"       validate:"required,max=20"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		CompanyID: r.CompanyID,
		Type:      domain.AccountType(r.Type),
		Category:  domain.AccountCategory(r.Category),
		Name:      r.Name,
		Code:      r.Code,
	}
}

// ManualLineRequest is one line of a manual journal entry.
type ManualLineRequest struct {
	AccountID   string `json:"account_id"  validate:"required"`
	Description string `json:"description" validate:"max=500"`
	Debit       string `json:"debit"       validate:"omitempty,numeric"`
	Credit      string `json:"credit"      validate:"omitempty,numeric"`
}

// CreateJournalEntryRequest represents a manual journal entry.
type CreateJournalEntryRequest struct {
	CompanyID string              `json:"company_id" validate:"required"`
	EntryDate string              `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Memo      string              `json:"memo"       validate:"max=1000"`
	Lines     []ManualLineRequest `json:"lines"      validate:"required,min=2,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateJournalEntryRequest) ToUseCaseInput() (usecase.CreateManualEntryInput, error) {
	date, err := parseDate("entry_date", r.EntryDate)
	if err != nil {
		return usecase.CreateManualEntryInput{}, err
	}

	lines := make([]usecase.ManualLine, len(r.Lines))
	for i, l := range r.Lines {
		debit, err := parseDecimal(fmt.Sprintf("lines[%d].debit", i), l.Debit)
		if err != nil {
			return usecase.CreateManualEntryInput{}, err
		}
		credit, err := parseDecimal(fmt.Sprintf("lines[%d].credit", i), l.Credit)
		if err != nil {
			return usecase.CreateManualEntryInput{}, err
		}
		lines[i] = usecase.ManualLine{
			AccountID:   l.AccountID,
			Description: l.Description,
			Debit:       debit,
			Credit:      credit,
		}
	}

	return usecase.CreateManualEntryInput{
		CompanyID: r.CompanyID,
		EntryDate: date,
		Memo:      r.Memo,
		Lines:     lines,
	}, nil
}

// PaymentRequest carries the editable fields of a payment.
type PaymentRequest struct {
	Type          string  `json:"type"            validate:"required,oneof=received made"`
	ContactID     string  `json:"contact_id"      validate:"required"`
	PaymentDate   string  `json:"payment_date"    validate:"required,datetime=2006-01-02"`
	Currency      string  `json:"currency"        validate:"required,len=3,alpha"`
	Amount        string  `json:"amount"          validate:"required,numeric"`
	ExchangeRate  string  `json:"exchange_rate"   validate:"omitempty,numeric"`
	BankAccountID string  `json:"bank_account_id" validate:"required"`
	ARAPAccountID string  `json:"ar_ap_account_id"`
	InvoiceID     *string `json:"invoice_id,omitempty"`
	BillID        *string `json:"bill_id,omitempty"`
	Reference     string  `json:"reference" validate:"max=255"`
	Notes         string  `json:"notes"     validate:"max=2000"`
}

func (r *PaymentRequest) toInput() (usecase.PaymentInput, error) {
	date, err := parseDate("payment_date", r.PaymentDate)
	if err != nil {
		return usecase.PaymentInput{}, err
	}
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return usecase.PaymentInput{}, err
	}
	rate, err := parseDecimal("exchange_rate", r.ExchangeRate)
	if err != nil {
		return usecase.PaymentInput{}, err
	}

	return usecase.PaymentInput{
		Type:          domain.PaymentType(r.Type),
		ContactID:     r.ContactID,
		PaymentDate:   date,
		Currency:      r.Currency,
		Amount:        amount,
		ExchangeRate:  rate,
		BankAccountID: r.BankAccountID,
		ARAPAccountID: r.ARAPAccountID,
		InvoiceID:     optionalID(r.InvoiceID),
		BillID:        optionalID(r.BillID),
		Reference:     r.Reference,
		Notes:         r.Notes,
	}, nil
}

// CreatePaymentRequest represents a request to record a payment.
type CreatePaymentRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	PaymentRequest
}

// ToUseCaseInput converts to use case input.
func (r *CreatePaymentRequest) ToUseCaseInput() (usecase.CreatePaymentInput, error) {
	input, err := r.toInput()
	if err != nil {
		return usecase.CreatePaymentInput{}, err
	}
	return usecase.CreatePaymentInput{CompanyID: r.CompanyID, PaymentInput: input}, nil
}

// EditPaymentRequest represents a full replacement of a payment.
type EditPaymentRequest struct {
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
	PaymentRequest
}

// ToUseCaseInput converts to use case input.
func (r *EditPaymentRequest) ToUseCaseInput(id string) (usecase.EditPaymentInput, error) {
	input, err := r.toInput()
	if err != nil {
		return usecase.EditPaymentInput{}, err
	}
	return usecase.EditPaymentInput{ID: id, ExpectedVersion: r.ExpectedVersion, PaymentInput: input}, nil
}

// VoidRequest is the optional body of a void request.
type VoidRequest struct {
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
}

// DocumentLineRequest is one revenue or expense line.
type DocumentLineRequest struct {
	AccountID   string `json:"account_id"`
	Description string `json:"description" validate:"max=500"`
	Amount      string `json:"amount"      validate:"required,numeric"`
}

// DocumentRequest carries the editable fields of an invoice or bill.
type DocumentRequest struct {
	ContactID        string                `json:"contact_id"    validate:"required"`
	Number           string                `json:"number"        validate:"max=64"`
	IssueDate        string                `json:"issue_date"    validate:"required,datetime=2006-01-02"`
	DueDate          *string               `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency         string                `json:"currency"      validate:"required,len=3,alpha"`
	ExchangeRate     string                `json:"exchange_rate" validate:"omitempty,numeric"`
	Lines            []DocumentLineRequest `json:"lines"         validate:"required,min=1,dive"`
	TaxAmount        string                `json:"tax_amount"    validate:"omitempty,numeric"`
	TaxAccountID     string                `json:"tax_account_id"`
	ControlAccountID string                `json:"control_account_id"`
}

func (r *DocumentRequest) toInput() (usecase.DocumentInput, error) {
	issue, err := parseDate("issue_date", r.IssueDate)
	if err != nil {
		return usecase.DocumentInput{}, err
	}
	due, err := parseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return usecase.DocumentInput{}, err
	}
	rate, err := parseDecimal("exchange_rate", r.ExchangeRate)
	if err != nil {
		return usecase.DocumentInput{}, err
	}
	tax, err := parseDecimal("tax_amount", r.TaxAmount)
	if err != nil {
		return usecase.DocumentInput{}, err
	}

	lines := make([]domain.DocumentLine, len(r.Lines))
	for i, l := range r.Lines {
		amount, err := parseDecimal(fmt.Sprintf("lines[%d].amount", i), l.Amount)
		if err != nil {
			return usecase.DocumentInput{}, err
		}
		lines[i] = domain.DocumentLine{
			AccountID:   l.AccountID,
			Description: l.Description,
			Amount:      amount,
		}
	}

	return usecase.DocumentInput{
		ContactID:        r.ContactID,
		Number:           r.Number,
		IssueDate:        issue,
		DueDate:          due,
		Currency:         r.Currency,
		ExchangeRate:     rate,
		Lines:            lines,
		TaxAmount:        tax,
		TaxAccountID:     r.TaxAccountID,
		ControlAccountID: r.ControlAccountID,
	}, nil
}

// CreateDocumentRequest represents a new invoice or bill. The kind comes
// from the route.
type CreateDocumentRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	DocumentRequest
}

// ToUseCaseInput converts to use case input.
func (r *CreateDocumentRequest) ToUseCaseInput(kind domain.DocumentKind) (usecase.CreateDocumentInput, error) {
	input, err := r.toInput()
	if err != nil {
		return usecase.CreateDocumentInput{}, err
	}
	return usecase.CreateDocumentInput{CompanyID: r.CompanyID, Kind: kind, DocumentInput: input}, nil
}

// EditDocumentRequest represents a full replacement of an invoice or bill.
type EditDocumentRequest struct {
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
	DocumentRequest
}

// ToUseCaseInput converts to use case input.
func (r *EditDocumentRequest) ToUseCaseInput(id string) (usecase.EditDocumentInput, error) {
	input, err := r.toInput()
	if err != nil {
		return usecase.EditDocumentInput{}, err
	}
	return usecase.EditDocumentInput{ID: id, ExpectedVersion: r.ExpectedVersion, DocumentInput: input}, nil
}

// CreateContactRequest represents a new customer or vendor.
type CreateContactRequest struct {
	CompanyID          string `json:"company_id"           validate:"required"`
	Kind               string `json:"kind"                 validate:"required,oneof=customer vendor"`
	Name               string `json:"name"                 validate:"required,max=255"`
	Email              string `json:"email"                validate:"omitempty,email"`
	Currency           string `json:"currency"             validate:"omitempty,len=3,alpha"`
	OpeningBalance     string `json:"opening_balance"      validate:"omitempty,numeric"`
	OpeningBalanceDate string `json:"opening_balance_date" validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateContactRequest) ToUseCaseInput() (usecase.CreateContactInput, error) {
	amount, err := parseDecimal("opening_balance", r.OpeningBalance)
	if err != nil {
		return usecase.CreateContactInput{}, err
	}
	date, err := parseDate("opening_balance_date", r.OpeningBalanceDate)
	if err != nil {
		return usecase.CreateContactInput{}, err
	}

	return usecase.CreateContactInput{
		CompanyID:          r.CompanyID,
		Kind:               domain.ContactKind(r.Kind),
		Name:               r.Name,
		Email:              r.Email,
		Currency:           r.Currency,
		OpeningBalance:     amount,
		OpeningBalanceDate: date,
	}, nil
}

// UpdateOpeningBalanceRequest replaces a contact's opening balance.
type UpdateOpeningBalanceRequest struct {
	Amount          string `json:"amount"                     validate:"required,numeric"`
	Date            string `json:"date"                       validate:"omitempty,datetime=2006-01-02"`
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=1"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateOpeningBalanceRequest) ToUseCaseInput(contactID string) (usecase.UpdateOpeningBalanceInput, error) {
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return usecase.UpdateOpeningBalanceInput{}, err
	}
	date, err := parseDate("date", r.Date)
	if err != nil {
		return usecase.UpdateOpeningBalanceInput{}, err
	}

	return usecase.UpdateOpeningBalanceInput{
		ContactID:       contactID,
		Amount:          amount,
		Date:            date,
		ExpectedVersion: r.ExpectedVersion,
	}, nil
}

// SetExchangeRateRequest stores the rate of one quote currency unit in the
// base currency.
type SetExchangeRateRequest struct {
	BaseCurrency  string `json:"base_currency"  validate:"required,len=3,alpha"`
	QuoteCurrency string `json:"quote_currency" validate:"required,len=3,alpha,nefield=BaseCurrency"`
	Rate          string `json:"rate"           validate:"required,numeric"`
	EffectiveAt   string `json:"effective_at"   validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *SetExchangeRateRequest) ToUseCaseInput() (usecase.SetRateInput, error) {
	rate, err := parseDecimal("rate", r.Rate)
	if err != nil {
		return usecase.SetRateInput{}, err
	}
	at, err := parseDate("effective_at", r.EffectiveAt)
	if err != nil {
		return usecase.SetRateInput{}, err
	}

	return usecase.SetRateInput{
		BaseCurrency:  r.BaseCurrency,
		QuoteCurrency: r.QuoteCurrency,
		Rate:          rate,
		EffectiveAt:   at,
	}, nil
}
