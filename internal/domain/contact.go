package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContactKind distinguishes customers from vendors.
type ContactKind string

const (
	ContactCustomer ContactKind = "customer"
	ContactVendor   ContactKind = "vendor"
)

// IsValid reports whether k is customer or vendor.
func (k ContactKind) IsValid() bool {
	return k == ContactCustomer || k == ContactVendor
}

// Contact is a customer or vendor with an optional opening balance.
type Contact struct {
	ID                    string
	CompanyID             string
	Kind                  ContactKind
	Name                  string
	Email                 string
	Currency              string
	OpeningBalance        decimal.Decimal
	OpeningBalanceDate    time.Time
	OpeningBalanceEntryID *string
	TotalOutstanding      decimal.Decimal
	Version               int64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OpeningBalanceLines builds the opening balance entry:
// customers DR receivable / CR owner's capital, vendors DR owner's capital / CR payable.
func (c *Contact) OpeningBalanceLines(controlAccountID, capitalAccountID string, amount decimal.Decimal) ([]PostingLine, error) {
	desc := "Opening balance " + c.Name

	switch c.Kind {
	case ContactCustomer:
		return []PostingLine{
			{AccountID: controlAccountID, Side: SideDebit, Amount: amount, Description: desc},
			{AccountID: capitalAccountID, Side: SideCredit, Amount: amount, Description: desc},
		}, nil
	case ContactVendor:
		return []PostingLine{
			{AccountID: capitalAccountID, Side: SideDebit, Amount: amount, Description: desc},
			{AccountID: controlAccountID, Side: SideCredit, Amount: amount, Description: desc},
		}, nil
	default:
		return nil, ErrInvalidContactKind
	}
}

// ControlCategory is the receivable or payable category for the contact.
func (c *Contact) ControlCategory() AccountCategory {
	if c.Kind == ContactVendor {
		return CategoryAccountsPayable
	}
	return CategoryAccountsReceivable
}
