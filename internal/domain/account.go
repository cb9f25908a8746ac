package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the accounting class of an account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid reports whether t is one of the five account classes.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide is the side on which the account's balance increases.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// AccountCategory narrows an account type to the role it plays in postings.
type AccountCategory string

const (
	CategoryBank               AccountCategory = "bank"
	CategoryCash               AccountCategory = "cash"
	CategoryAccountsReceivable AccountCategory = "accounts_receivable"
	CategoryAccountsPayable    AccountCategory = "accounts_payable"
	CategoryOwnersCapital      AccountCategory = "owners_capital"
	CategoryRevenue            AccountCategory = "revenue"
	CategoryExpense            AccountCategory = "expense"
	CategoryTaxPayable         AccountCategory = "tax_payable"
	CategoryTaxReceivable      AccountCategory = "tax_receivable"
	CategoryOther              AccountCategory = "other"
)

var accountCategories = map[AccountCategory]bool{
	CategoryBank:               true,
	CategoryCash:               true,
	CategoryAccountsReceivable: true,
	CategoryAccountsPayable:    true,
	CategoryOwnersCapital:      true,
	CategoryRevenue:            true,
	CategoryExpense:            true,
	CategoryTaxPayable:         true,
	CategoryTaxReceivable:      true,
	CategoryOther:              true,
}

// IsValid checks if the category is known.
func (c AccountCategory) IsValid() bool {
	return accountCategories[c]
}

// ExpectedType is the account type the category requires. Other fits any type.
func (c AccountCategory) ExpectedType() (AccountType, bool) {
	switch c {
	case CategoryBank, CategoryCash, CategoryAccountsReceivable, CategoryTaxReceivable:
		return AccountTypeAsset, true
	case CategoryAccountsPayable, CategoryTaxPayable:
		return AccountTypeLiability, true
	case CategoryOwnersCapital:
		return AccountTypeEquity, true
	case CategoryRevenue:
		return AccountTypeRevenue, true
	case CategoryExpense:
		return AccountTypeExpense, true
	}
	return "", false
}

// Account is a general ledger account owned by a company.
// Balance is kept in the company's base currency using the natural sign of
// the account type.
type Account struct {
	ID        string
	CompanyID string
	Type      AccountType
	Category  AccountCategory
	Name      string
	Code      string
	Balance   decimal.Decimal
	Version   int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Delta returns the signed change to Balance for posting amount on side.
func (a *Account) Delta(side Side, amount decimal.Decimal) decimal.Decimal {
	if side == a.Type.NormalSide() {
		return amount
	}
	return amount.Neg()
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.Delta(SideDebit, amount))
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.Delta(SideCredit, amount))
}

// BalanceFromTotals derives the natural-sign balance from summed debits and credits.
func (a *Account) BalanceFromTotals(debits, credits decimal.Decimal) decimal.Decimal {
	if a.Type.NormalSide() == SideDebit {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// MoneyAccount reports whether the account can be the bank leg of a payment.
func (a *Account) MoneyAccount() bool {
	return a.Type == AccountTypeAsset && (a.Category == CategoryBank || a.Category == CategoryCash)
}
