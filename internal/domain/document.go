package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes sales invoices from purchase bills.
type DocumentKind string

const (
	DocumentInvoice DocumentKind = "invoice"
	DocumentBill    DocumentKind = "bill"
)

// IsValid reports whether k is invoice or bill.
func (k DocumentKind) IsValid() bool {
	return k == DocumentInvoice || k == DocumentBill
}

// SourceType is the journal source of documents of this kind.
func (k DocumentKind) SourceType() SourceType {
	if k == DocumentBill {
		return SourceBill
	}
	return SourceInvoice
}

// ControlCategory is the default control account category.
func (k DocumentKind) ControlCategory() AccountCategory {
	if k == DocumentBill {
		return CategoryAccountsPayable
	}
	return CategoryAccountsReceivable
}

// TaxCategory is the default tax account category.
func (k DocumentKind) TaxCategory() AccountCategory {
	if k == DocumentBill {
		return CategoryTaxReceivable
	}
	return CategoryTaxPayable
}

// ContactKind is the contact kind documents of this kind are issued to.
func (k DocumentKind) ContactKind() ContactKind {
	if k == DocumentBill {
		return ContactVendor
	}
	return ContactCustomer
}

// DocumentStatus is the settlement state of an invoice or bill.
type DocumentStatus string

const (
	DocumentStatusSent    DocumentStatus = "sent"
	DocumentStatusPartial DocumentStatus = "partial"
	DocumentStatusPaid    DocumentStatus = "paid"
	DocumentStatusOverdue DocumentStatus = "overdue"
	DocumentStatusVoid    DocumentStatus = "void"
)

// Settlement tracks how much of a document has been paid.
type Settlement struct {
	TotalAmount decimal.Decimal
	AmountPaid  decimal.Decimal
	BalanceDue  decimal.Decimal
	Status      DocumentStatus
	DueDate     *time.Time
}

// ApplyPayment moves AmountPaid by delta, which is negative when a payment
// is unwound, and recomputes BalanceDue and Status.
func (s *Settlement) ApplyPayment(delta decimal.Decimal, now time.Time) {
	s.AmountPaid = s.AmountPaid.Add(delta)
	s.Recompute(now)
}

// Recompute derives BalanceDue and Status from TotalAmount and AmountPaid.
func (s *Settlement) Recompute(now time.Time) {
	s.BalanceDue = s.TotalAmount.Sub(s.AmountPaid)
	if s.Status == DocumentStatusVoid {
		return
	}

	switch {
	case !s.BalanceDue.IsPositive():
		s.Status = DocumentStatusPaid
	case s.AmountPaid.IsPositive():
		s.Status = DocumentStatusPartial
	case s.DueDate != nil && now.After(*s.DueDate):
		s.Status = DocumentStatusOverdue
	case s.Status == DocumentStatusPaid || s.Status == DocumentStatusPartial || s.Status == DocumentStatusOverdue:
		s.Status = DocumentStatusSent
	}
}

// DocumentLine is a revenue line of an invoice or an expense line of a bill,
// in the document currency.
type DocumentLine struct {
	AccountID   string
	Description string
	Amount      decimal.Decimal
}

// Document is an invoice or a bill.
type Document struct {
	ID               string
	CompanyID        string
	Kind             DocumentKind
	ContactID        string
	Number           string
	IssueDate        time.Time
	Currency         string
	ExchangeRate     decimal.Decimal
	Lines            []DocumentLine
	TaxAmount        decimal.Decimal
	TaxAccountID     string
	ControlAccountID string
	Settlement
	// TotalBaseCurrency is the posted control amount in base currency.
	TotalBaseCurrency decimal.Decimal
	JournalEntryID    *string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Subtotal sums the document lines.
func (d *Document) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.Lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}

// ComputeTotal sets TotalAmount to subtotal plus tax.
func (d *Document) ComputeTotal() {
	d.TotalAmount = d.Subtotal().Add(d.TaxAmount)
}

// PostingLines converts the document into balanced base-currency lines.
// Each line is converted and rounded separately and the control leg is the
// sum of the converted lines, so the entry always balances.
func (d *Document) PostingLines(baseCurrency string) ([]PostingLine, error) {
	lineSide := SideCredit
	if d.Kind == DocumentBill {
		lineSide = SideDebit
	}

	lines := make([]PostingLine, 0, len(d.Lines)+2)
	total := decimal.Zero
	for _, l := range d.Lines {
		base, err := ConvertToBase(l.Amount, d.ExchangeRate, baseCurrency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, PostingLine{AccountID: l.AccountID, Side: lineSide, Amount: base, Description: l.Description})
		total = total.Add(base)
	}

	if d.TaxAmount.IsPositive() {
		base, err := ConvertToBase(d.TaxAmount, d.ExchangeRate, baseCurrency)
		if err != nil {
			return nil, err
		}
		lines = append(lines, PostingLine{AccountID: d.TaxAccountID, Side: lineSide, Amount: base, Description: "Tax " + d.Number})
		total = total.Add(base)
	}

	control := PostingLine{
		AccountID:   d.ControlAccountID,
		Side:        lineSide.Opposite(),
		Amount:      total,
		Description: string(d.Kind) + " " + d.Number,
	}

	return append([]PostingLine{control}, lines...), nil
}

// OutstandingDelta is the change the document makes to its contact's
// outstanding total, in base currency.
func (d *Document) OutstandingDelta() decimal.Decimal {
	if d.Status == DocumentStatusVoid {
		return decimal.Zero
	}
	return d.TotalBaseCurrency
}
