package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	UserID       string // Who performed the action
	Action       string // What action (payment.edit, journal.reverse, etc.)
	ResourceType string // Type of resource (payment, invoice, journal_entry)
	ResourceID   string // ID of the resource
	IPAddress    string // Client IP address
	UserAgent    string // Client user agent
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Account actions
	AuditActionAccountCreate AuditAction = "account.create"
	AuditActionCompanyCreate AuditAction = "company.create"

	// Journal actions
	AuditActionEntryPost    AuditAction = "journal.post"
	AuditActionEntryReverse AuditAction = "journal.reverse"

	// Payment actions
	AuditActionPaymentCreate AuditAction = "payment.create"
	AuditActionPaymentEdit   AuditAction = "payment.edit"
	AuditActionPaymentVoid   AuditAction = "payment.void"
	AuditActionPaymentDelete AuditAction = "payment.delete"

	// Document actions
	AuditActionDocumentCreate AuditAction = "document.create"
	AuditActionDocumentEdit   AuditAction = "document.edit"
	AuditActionDocumentVoid   AuditAction = "document.void"

	// Contact actions
	AuditActionContactCreate        AuditAction = "contact.create"
	AuditActionOpeningBalanceChange AuditAction = "contact.opening_balance"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
