package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the debit or credit column of a journal line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Opposite returns the other column.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// SourceType identifies the kind of document that produced a journal entry.
type SourceType string

const (
	SourceManual         SourceType = "manual"
	SourcePayment        SourceType = "payment"
	SourceInvoice        SourceType = "invoice"
	SourceBill           SourceType = "bill"
	SourceOpeningBalance SourceType = "opening_balance"
)

// IsValid reports whether s is a known source type.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourcePayment, SourceInvoice, SourceBill, SourceOpeningBalance:
		return true
	}
	return false
}

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryStatusPosted EntryStatus = "posted"
)

// JournalLine is one debit or credit of a journal entry. Exactly one of
// Debit and Credit is positive.
type JournalLine struct {
	ID                     string
	EntryID                string
	LineNo                 int
	AccountID              string
	AccountName            string
	AccountCode            string
	Description            string
	Debit                  decimal.Decimal
	Credit                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}

// Side returns the column the line posts to.
func (l JournalLine) Side() Side {
	if l.Debit.IsPositive() {
		return SideDebit
	}
	return SideCredit
}

// Amount returns the non-zero side of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// JournalEntry is an immutable, balanced set of journal lines.
type JournalEntry struct {
	ID                string
	CompanyID         string
	EntryNumber       string
	EntryDate         time.Time
	SourceType        SourceType
	SourceID          string
	Memo              string
	Lines             []JournalLine
	TotalDebits       decimal.Decimal
	TotalCredits      decimal.Decimal
	Status            EntryStatus
	ReversesEntryID   *string
	ReversedByEntryID *string
	PostedBy          string
	PostedAt          time.Time
}

// ComputeTotals recalculates TotalDebits and TotalCredits from the lines.
func (e *JournalEntry) ComputeTotals() {
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	e.TotalDebits = debits
	e.TotalCredits = credits
}

// Validate checks the double-entry invariants.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return ErrTooFewLines
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return ErrInvalidLine
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return ErrInvalidLine
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}

	if !debits.Equal(credits) {
		return ErrUnbalancedEntry
	}
	if !e.TotalDebits.Equal(debits) || !e.TotalCredits.Equal(credits) {
		return ErrUnbalancedEntry
	}

	return nil
}

// IsReversal reports whether e offsets another entry.
func (e *JournalEntry) IsReversal() bool {
	return e.ReversesEntryID != nil
}

// AccountIDs returns the distinct accounts touched by the entry.
func (e *JournalEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

// PostingLine is a line to be posted before account snapshots are attached.
type PostingLine struct {
	AccountID   string
	Side        Side
	Amount      decimal.Decimal
	Description string
}

// ReversalLines swaps debit and credit of every line of e.
func (e *JournalEntry) ReversalLines() []PostingLine {
	lines := make([]PostingLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, PostingLine{
			AccountID:   l.AccountID,
			Side:        l.Side().Opposite(),
			Amount:      l.Amount(),
			Description: "Reversal: " + l.Description,
		})
	}
	return lines
}

// CheckBalanced verifies that posting lines sum to equal debits and credits.
func CheckBalanced(lines []PostingLine) error {
	if len(lines) < 2 {
		return ErrTooFewLines
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if !l.Amount.IsPositive() {
			return ErrInvalidLine
		}
		switch l.Side {
		case SideDebit:
			debits = debits.Add(l.Amount)
		case SideCredit:
			credits = credits.Add(l.Amount)
		default:
			return ErrInvalidLine
		}
	}

	if !debits.Equal(credits) {
		return ErrUnbalancedEntry
	}
	return nil
}

// TrialBalanceLine is one account row of a trial balance.
type TrialBalanceLine struct {
	AccountID   string
	AccountCode string
	AccountName string
	AccountType AccountType
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Balance     decimal.Decimal
}
