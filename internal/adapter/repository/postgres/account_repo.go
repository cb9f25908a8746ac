package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/erpledger/internal/domain"
	"github.com/iho/erpledger/internal/usecase"
)

const accountColumns = `id, company_id, type, category, name, code, balance, version, active, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	_, err := conn(r.db, tx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID,
		account.CompanyID,
		string(account.Type),
		string(account.Category),
		account.Name,
		account.Code,
		decimalToNumeric(account.Balance),
		account.Version,
		account.Active,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if code, _ := pgErrorCode(err); code == pgErrUniqueViolation {
		return domain.ErrDuplicateAccount
	}

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE
// locks, taken in id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := conn(r.db, tx).Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// FindByCategory returns the company's active account of a category with
// the lowest code.
func (r *AccountRepository) FindByCategory(ctx context.Context, tx usecase.Transaction, companyID string, category domain.AccountCategory) (*domain.Account, error) {
	row := conn(r.db, tx).QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE company_id = $1 AND category = $2 AND active
		ORDER BY code
		LIMIT 1`, companyID, string(category))

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return account, nil
}

// UpdateBalance updates the balance and version of an account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	tag, err := conn(r.db, tx).Exec(ctx, `
		UPDATE accounts SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1`,
		id, decimalToNumeric(balance), version, updatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListByCompany lists a company's accounts ordered by code.
func (r *AccountRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE company_id = $1
		ORDER BY code
		LIMIT $2 OFFSET $3`, companyID, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]*domain.Account, error) {
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a                  domain.Account
		accountType, categ string
		balance            pgtype.Numeric
	)

	err := row.Scan(
		&a.ID,
		&a.CompanyID,
		&accountType,
		&categ,
		&a.Name,
		&a.Code,
		&balance,
		&a.Version,
		&a.Active,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = domain.AccountType(accountType)
	a.Category = domain.AccountCategory(categ)
	a.Balance = numericToDecimal(balance)

	return &a, nil
}
