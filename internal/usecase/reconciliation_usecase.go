package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/infrastructure/metrics"
)

// ReconciliationUseCase compares running account balances with the
// balances derived from journal lines.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	journalRepo JournalRepository
	ledger      *LedgerUseCase
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	ledger *LedgerUseCase,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		ledger:      ledger,
		metrics:     metrics,
		logger:      logger,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	AccountCode       string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount derives an account's balance from its journal lines and
// compares it with the stored running balance.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	debits, credits, err := uc.journalRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("sum journal lines of %s: %w", accountID, err)
	}

	calculated := account.BalanceFromTotals(debits, credits)
	diff := account.Balance.Sub(calculated)

	result := &ReconciliationResult{
		AccountID:         account.ID,
		AccountCode:       account.Code,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}

	if uc.metrics != nil {
		uc.metrics.AccountBalance.WithLabelValues(account.CompanyID, account.Code).Set(account.Balance.InexactFloat64())
	}

	if !result.IsReconciled {
		uc.logger.Warn().
			Str("account_id", account.ID).
			Str("account_code", account.Code).
			Str("recorded", account.Balance.String()).
			Str("calculated", calculated.String()).
			Msg("account balance differs from journal lines")
		if uc.metrics != nil {
			uc.metrics.ReconciliationDifferences.WithLabelValues(account.CompanyID).Inc()
		}
	}

	return result, nil
}

// ReconcileCompany reconciles every account of a company.
func (uc *ReconciliationUseCase) ReconcileCompany(ctx context.Context, companyID string) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	const page = 1000
	for offset := 0; ; offset += page {
		accounts, err := uc.accountRepo.ListByCompany(ctx, companyID, page, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < page {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CompanyID          string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles a company and checks global
// debit/credit consistency.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context, companyID string) (*ReconciliationReport, error) {
	results, err := uc.ReconcileCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		CompanyID:        companyID,
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: true,
		CheckedAt:        time.Now().UTC(),
	}

	if uc.ledger != nil {
		if _, err := uc.ledger.CheckConsistency(ctx); err != nil {
			report.LedgerConsistent = false
		}
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
