package domain

import (
	"fmt"
	"strings"

	"github.com/govalues/money"
	"github.com/shopspring/decimal"
)

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CurrencyScale returns the number of minor-unit digits for an ISO 4217 code.
func CurrencyScale(code string) (int32, error) {
	curr, err := money.ParseCurr(NormalizeCurrency(code))
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}

	return int32(curr.Scale()), nil
}

// RoundToCurrency rounds half away from zero to the currency's minor unit.
func RoundToCurrency(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	scale, err := CurrencyScale(code)
	if err != nil {
		return decimal.Zero, err
	}

	return amount.Round(scale), nil
}

// CheckPrecision rejects amounts with more fractional digits than the currency allows.
func CheckPrecision(amount decimal.Decimal, code string) error {
	scale, err := CurrencyScale(code)
	if err != nil {
		return err
	}

	if !amount.Equal(amount.Round(scale)) {
		return fmt.Errorf("%w: %s allows %d decimal places", ErrAmountPrecision, NormalizeCurrency(code), scale)
	}

	return nil
}

// ConvertToBase converts a transaction-currency amount using rate and rounds
// the result to the base currency's minor unit.
func ConvertToBase(amount, rate decimal.Decimal, baseCurrency string) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidExchangeRate
	}

	return RoundToCurrency(amount.Mul(rate), baseCurrency)
}
