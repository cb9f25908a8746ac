package domain

import (
	"fmt"
	"time"
)

// Company owns accounts, journal entries and documents. No record may
// reference data of another company.
type Company struct {
	ID           string
	Name         string
	BaseCurrency string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FormatEntryNumber renders a per-company journal sequence number.
func FormatEntryNumber(seq int64) string {
	return fmt.Sprintf("JE-%06d", seq)
}

// EnsureSameCompany fails when a record belongs to another company.
func EnsureSameCompany(companyID, otherCompanyID string) error {
	if companyID != otherCompanyID {
		return ErrCrossCompanyReference
	}
	return nil
}
