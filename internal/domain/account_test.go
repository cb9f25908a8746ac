package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ApplyDebitCredit(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		balance     decimal.Decimal
		side        Side
		amount      decimal.Decimal
		expected    decimal.Decimal
	}{
		{
			name:        "asset increases on debit",
			accountType: AccountTypeAsset,
			balance:     decimal.NewFromInt(100),
			side:        SideDebit,
			amount:      decimal.NewFromInt(40),
			expected:    decimal.NewFromInt(140),
		},
		{
			name:        "asset decreases on credit",
			accountType: AccountTypeAsset,
			balance:     decimal.NewFromInt(100),
			side:        SideCredit,
			amount:      decimal.NewFromInt(40),
			expected:    decimal.NewFromInt(60),
		},
		{
			name:        "expense increases on debit",
			accountType: AccountTypeExpense,
			balance:     decimal.Zero,
			side:        SideDebit,
			amount:      decimal.NewFromInt(500),
			expected:    decimal.NewFromInt(500),
		},
		{
			name:        "liability increases on credit",
			accountType: AccountTypeLiability,
			balance:     decimal.NewFromInt(10),
			side:        SideCredit,
			amount:      decimal.NewFromInt(5),
			expected:    decimal.NewFromInt(15),
		},
		{
			name:        "equity decreases on debit",
			accountType: AccountTypeEquity,
			balance:     decimal.NewFromInt(1000),
			side:        SideDebit,
			amount:      decimal.NewFromInt(1000),
			expected:    decimal.Zero,
		},
		{
			name:        "revenue increases on credit",
			accountType: AccountTypeRevenue,
			balance:     decimal.Zero,
			side:        SideCredit,
			amount:      decimal.RequireFromString("12.34"),
			expected:    decimal.RequireFromString("12.34"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Type: tt.accountType, Balance: tt.balance}

			var got decimal.Decimal
			if tt.side == SideDebit {
				got = acc.ApplyDebit(tt.amount)
			} else {
				got = acc.ApplyCredit(tt.amount)
			}

			if !got.Equal(tt.expected) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAccount_BalanceFromTotals(t *testing.T) {
	asset := &Account{Type: AccountTypeAsset}
	if got := asset.BalanceFromTotals(decimal.NewFromInt(300), decimal.NewFromInt(100)); !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("asset: expected 200, got %s", got)
	}

	liability := &Account{Type: AccountTypeLiability}
	if got := liability.BalanceFromTotals(decimal.NewFromInt(300), decimal.NewFromInt(100)); !got.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("liability: expected -200, got %s", got)
	}
}

func TestAccountType_IsValid(t *testing.T) {
	for _, typ := range []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense} {
		if !typ.IsValid() {
			t.Errorf("expected %s to be valid", typ)
		}
	}

	if AccountType("contra").IsValid() {
		t.Error("expected unknown type to be invalid")
	}
}

func TestAccount_MoneyAccount(t *testing.T) {
	bank := &Account{Type: AccountTypeAsset, Category: CategoryBank}
	if !bank.MoneyAccount() {
		t.Error("expected bank account to be a money account")
	}

	ar := &Account{Type: AccountTypeAsset, Category: CategoryAccountsReceivable}
	if ar.MoneyAccount() {
		t.Error("expected receivable not to be a money account")
	}
}
