package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	poster *ledgerPoster
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(deps PostingDeps) *AccountUseCase {
	return &AccountUseCase{poster: newLedgerPoster(deps)}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	CompanyID string
	Type      domain.AccountType
	Category  domain.AccountCategory
	Name      string
	Code      string
}

// CreateAccount creates a new account with a zero balance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	code := strings.TrimSpace(input.Code)

	if err := domain.ValidateAccountName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountCode(code); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidAccountType
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !category.IsValid() {
		return nil, domain.ErrInvalidCategory
	}
	if expected, ok := category.ExpectedType(); ok && expected != input.Type {
		return nil, domain.ErrCategoryTypeMismatch
	}

	if _, err := uc.poster.CompanyRepo.GetByID(ctx, input.CompanyID); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := uc.poster.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		now := time.Now().UTC()
		account = &domain.Account{
			ID:        uc.poster.IDGen.Generate(),
			CompanyID: input.CompanyID,
			Type:      input.Type,
			Category:  category,
			Name:      name,
			Code:      code,
			Balance:   decimal.Zero,
			Version:   0,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := uc.poster.AccountRepo.Create(ctx, tx, account); err != nil {
			return err
		}

		if err := uc.poster.emit(ctx, tx, account.CompanyID, domain.AggregateTypeAccount, account.ID, domain.EventTypeAccountCreated, map[string]any{
			"account_id":   account.ID,
			"account_code": account.Code,
			"account_type": string(account.Type),
			"category":     string(account.Category),
		}, now); err != nil {
			return err
		}

		return uc.poster.audit(ctx, tx, domain.AuditActionAccountCreate, ResourceAccount, account.ID, nil, account, now)
	})
	if err != nil {
		return nil, err
	}

	if m := uc.poster.Metrics; m != nil {
		m.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.poster.AccountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	CompanyID string
	Limit     int
	Offset    int
}

// ListAccounts lists a company's accounts ordered by code.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.poster.AccountRepo.ListByCompany(ctx, input.CompanyID, limit, offset)
}
