package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType is the direction of a payment.
type PaymentType string

const (
	PaymentReceived PaymentType = "received"
	PaymentMade     PaymentType = "made"
)

// IsValid reports whether t is received or made.
func (t PaymentType) IsValid() bool {
	return t == PaymentReceived || t == PaymentMade
}

// Legs applies the payment rule table and returns the debited and credited
// account for a payment between a money account and a counterparty account.
func (t PaymentType) Legs(moneyAccountID, counterpartyAccountID string) (debit, credit string, err error) {
	switch t {
	case PaymentReceived:
		return moneyAccountID, counterpartyAccountID, nil
	case PaymentMade:
		return counterpartyAccountID, moneyAccountID, nil
	default:
		return "", "", ErrInvalidPaymentType
	}
}

// CounterpartyCategory is the default counterparty account category.
func (t PaymentType) CounterpartyCategory() AccountCategory {
	if t == PaymentMade {
		return CategoryAccountsPayable
	}
	return CategoryAccountsReceivable
}

// LinkKind is the document kind a payment of this type may settle.
func (t PaymentType) LinkKind() DocumentKind {
	if t == PaymentMade {
		return DocumentBill
	}
	return DocumentInvoice
}

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPosted PaymentStatus = "posted"
	PaymentStatusVoid   PaymentStatus = "void"
)

// Payment is money received from a customer or paid to a vendor.
type Payment struct {
	ID                 string
	CompanyID          string
	Type               PaymentType
	ContactID          string
	PaymentDate        time.Time
	Currency           string
	Amount             decimal.Decimal
	ExchangeRate       decimal.Decimal
	AmountBaseCurrency decimal.Decimal
	BankAccountID      string
	ARAPAccountID      string
	JournalEntryID     *string
	InvoiceID          *string
	BillID             *string
	Reference          string
	Notes              string
	Status             PaymentStatus
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LinkedDocumentID returns the invoice or bill the payment settles, if any.
func (p *Payment) LinkedDocumentID() string {
	switch {
	case p.InvoiceID != nil && *p.InvoiceID != "":
		return *p.InvoiceID
	case p.BillID != nil && *p.BillID != "":
		return *p.BillID
	}
	return ""
}

// ValidateLink checks that the payment only links a document its type can settle.
func (p *Payment) ValidateLink() error {
	hasInvoice := p.InvoiceID != nil && *p.InvoiceID != ""
	hasBill := p.BillID != nil && *p.BillID != ""

	switch {
	case hasInvoice && hasBill:
		return ErrInvalidDocumentLink
	case hasInvoice && p.Type != PaymentReceived:
		return ErrInvalidDocumentLink
	case hasBill && p.Type != PaymentMade:
		return ErrInvalidDocumentLink
	}
	return nil
}

// Lines builds the two posting lines of the payment in base currency.
func (p *Payment) Lines() ([]PostingLine, error) {
	debit, credit, err := p.Type.Legs(p.BankAccountID, p.ARAPAccountID)
	if err != nil {
		return nil, err
	}

	desc := "Payment " + string(p.Type)
	if p.Reference != "" {
		desc += " " + p.Reference
	}

	return []PostingLine{
		{AccountID: debit, Side: SideDebit, Amount: p.AmountBaseCurrency, Description: desc},
		{AccountID: credit, Side: SideCredit, Amount: p.AmountBaseCurrency, Description: desc},
	}, nil
}

// OutstandingDelta is the change the payment makes to its contact's
// outstanding total, in base currency.
func (p *Payment) OutstandingDelta() decimal.Decimal {
	return p.AmountBaseCurrency.Neg()
}
