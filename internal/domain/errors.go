package domain

import "errors"

var (
	// Company errors
	ErrCompanyNotFound       = errors.New("company not found")
	ErrCrossCompanyReference = errors.New("record belongs to another company")

	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountNotResolved   = errors.New("required account could not be resolved")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrDuplicateAccount     = errors.New("account code already exists")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidCategory      = errors.New("invalid account category")
	ErrNotMoneyAccount      = errors.New("account is not a bank or cash account")
	ErrCategoryTypeMismatch = errors.New("account category does not match account type")

	// Journal errors
	ErrEntryNotFound      = errors.New("journal entry not found")
	ErrTooFewLines        = errors.New("journal entry needs at least two lines")
	ErrInvalidLine        = errors.New("journal line must have exactly one positive side")
	ErrUnbalancedEntry    = errors.New("total debits do not equal total credits")
	ErrAlreadyReversed    = errors.New("journal entry already reversed")
	ErrReversalOfReversal = errors.New("cannot reverse a reversing entry")
	ErrSourceManaged      = errors.New("journal entry is managed by its source document")
	ErrInvalidSourceType  = errors.New("invalid source type")

	// Amount errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrAmountPrecision      = errors.New("amount has too many decimal places")
	ErrCurrencyMismatch     = errors.New("currency does not match linked document")
	ErrInvalidExchangeRate  = errors.New("exchange rate must be positive")
	ErrExchangeRateNotFound = errors.New("exchange rate not found")

	// Payment errors
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvalidPaymentType  = errors.New("payment type must be received or made")
	ErrInvalidDocumentLink = errors.New("payment cannot settle this document")
	ErrPaymentVoid         = errors.New("payment is void")

	// Document errors
	ErrDocumentNotFound    = errors.New("document not found")
	ErrInvalidDocumentKind = errors.New("document kind must be invoice or bill")
	ErrDocumentVoid        = errors.New("document is void")
	ErrDocumentPosted      = errors.New("posted document cannot be deleted; void it instead")
	ErrDocumentHasPayments = errors.New("document has payments applied")
	ErrOverpayment         = errors.New("document total is below the amount already paid")

	// Contact errors
	ErrContactNotFound     = errors.New("contact not found")
	ErrInvalidContactKind  = errors.New("contact kind must be customer or vendor")
	ErrContactKindMismatch = errors.New("contact kind does not match document")

	// Concurrency errors
	ErrVersionConflict   = errors.New("record was modified by another request")
	ErrRecordLocked      = errors.New("record is locked by another user")
	ErrLockNotHeld       = errors.New("record lock is not held by caller")
	ErrInvalidLockTarget = errors.New("record cannot be locked")
)
