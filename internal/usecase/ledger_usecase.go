package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

var (
	// ErrInconsistentLedger is returned when the ledger is not balanced.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, metrics *metrics.Metrics, logger zerolog.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
		metrics:    metrics,
		logger:     logger,
	}
}

// ConsistencyResult is the outcome of a global debit/credit check.
type ConsistencyResult struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Consistent   bool
}

// CheckConsistency verifies that every journal line ever posted sums to
// equal debits and credits. An unbalanced ledger returns the totals together
// with ErrInconsistentLedger.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyResult, error) {
	debits, credits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{
		TotalDebits:  debits,
		TotalCredits: credits,
		Consistent:   debits.Equal(credits),
	}

	outcome := "consistent"
	if !result.Consistent {
		outcome = "inconsistent"
		uc.logger.Error().
			Str("total_debits", debits.String()).
			Str("total_credits", credits.String()).
			Msg("ledger inconsistency detected")
	}
	if uc.metrics != nil {
		uc.metrics.ConsistencyChecks.WithLabelValues(outcome).Inc()
	}

	if !result.Consistent {
		return result, fmt.Errorf("%w: debits=%s credits=%s difference=%s",
			ErrInconsistentLedger, debits, credits, debits.Sub(credits))
	}

	return result, nil
}
