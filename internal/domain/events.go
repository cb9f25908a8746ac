package domain

import "time"

// Event types
const (
	EventTypeJournalPosted         = "journal.posted"
	EventTypeJournalReversed       = "journal.reversed"
	EventTypePaymentCreated        = "payment.created"
	EventTypePaymentUpdated        = "payment.updated"
	EventTypePaymentVoided         = "payment.voided"
	EventTypeDocumentCreated       = "document.created"
	EventTypeDocumentUpdated       = "document.updated"
	EventTypeDocumentVoided        = "document.voided"
	EventTypeOpeningBalanceChanged = "contact.opening_balance_changed"
	EventTypeAccountCreated        = "account.created"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypePayment      = "payment"
	AggregateTypeDocument     = "document"
	AggregateTypeContact      = "contact"
	AggregateTypeAccount      = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	CompanyID     string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedPayload builds the payload of a journal.posted or
// journal.reversed event, including the resulting account balances.
func JournalPostedPayload(entry *JournalEntry) map[string]any {
	balances := make([]map[string]any, 0, len(entry.Lines))
	for _, l := range entry.Lines {
		balances = append(balances, map[string]any{
			"account_id": l.AccountID,
			"balance":    l.AccountCurrentBalance.String(),
			"version":    l.AccountVersion,
		})
	}

	payload := map[string]any{
		"entry_id":      entry.ID,
		"entry_number":  entry.EntryNumber,
		"source_type":   string(entry.SourceType),
		"source_id":     entry.SourceID,
		"total_debits":  entry.TotalDebits.String(),
		"total_credits": entry.TotalCredits.String(),
		"balances":      balances,
	}
	if entry.ReversesEntryID != nil {
		payload["reverses_entry_id"] = *entry.ReversesEntryID
	}

	return payload
}
