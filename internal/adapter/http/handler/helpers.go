package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/erpledger/internal/adapter/http/dto"
	"github.com/iho/erpledger/internal/domain"
)

const (
	defaultLimit = 50
	maxBodyBytes = 1 << 20
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCompanyNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrContactNotFound),
		errors.Is(err, domain.ErrExchangeRateNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrRecordLocked),
		errors.Is(err, domain.ErrLockNotHeld),
		errors.Is(err, domain.ErrDocumentPosted),
		errors.Is(err, domain.ErrDocumentHasPayments),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrPaymentVoid),
		errors.Is(err, domain.ErrDocumentVoid):
		return http.StatusConflict

	case errors.Is(err, domain.ErrAccountNotResolved),
		errors.Is(err, domain.ErrSourceManaged),
		errors.Is(err, domain.ErrReversalOfReversal),
		errors.Is(err, domain.ErrOverpayment):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrCrossCompanyReference),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrInvalidAccountType),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrNotMoneyAccount),
		errors.Is(err, domain.ErrCategoryTypeMismatch),
		errors.Is(err, domain.ErrTooFewLines),
		errors.Is(err, domain.ErrInvalidLine),
		errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrInvalidSourceType),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrInvalidExchangeRate),
		errors.Is(err, domain.ErrInvalidPaymentType),
		errors.Is(err, domain.ErrInvalidDocumentLink),
		errors.Is(err, domain.ErrInvalidDocumentKind),
		errors.Is(err, domain.ErrInvalidContactKind),
		errors.Is(err, domain.ErrContactKindMismatch),
		errors.Is(err, domain.ErrInvalidLockTarget),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountCode),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// decodeRequest decodes a JSON body into req and runs its validate tags.
// It writes the 400 response itself and reports whether decoding succeeded.
func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	if err := dto.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
			Fields:  dto.FieldErrors(err),
		})
		return false
	}

	return true
}

// decodeOptionalRequest is decodeRequest for bodies that may be empty.
func decodeOptionalRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if err := dto.Validate(req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "validation failed",
			Fields: dto.FieldErrors(err),
		})
		return false
	}
	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// pagination reads limit and offset with the API defaults.
func pagination(r *http.Request) (int, int) {
	return parseIntQuery(r, "limit", defaultLimit), parseIntQuery(r, "offset", 0)
}

// parseDateQuery parses a YYYY-MM-DD query parameter. Missing values yield
// fallback.
func parseDateQuery(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return fallback, nil
	}
	return time.ParseInLocation(dto.DateLayout, val, time.UTC)
}
